package naf

import (
	"bufio"
	"io"

	"github.com/grailbio/naf/encoding/naf/colio"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Opt configures a Decoder. Every column is decoded by default; a column
// no Opt mentions stays enabled.
type Opt func(*decoderConfig)

type decoderConfig struct {
	wantID       bool
	wantComment  bool
	wantSequence bool
	wantQuality  bool
	wantMask     bool
}

func defaultDecoderConfig() decoderConfig {
	return decoderConfig{
		wantID:       true,
		wantComment:  true,
		wantSequence: true,
		wantQuality:  true,
		wantMask:     true,
	}
}

// WithID enables or disables decoding the Id column. Disabling it when
// not needed skips decompressing that column entirely.
func WithID(want bool) Opt { return func(c *decoderConfig) { c.wantID = want } }

// WithComment enables or disables decoding the Comment column.
func WithComment(want bool) Opt { return func(c *decoderConfig) { c.wantComment = want } }

// WithSequence enables or disables decoding the Sequence column.
func WithSequence(want bool) Opt { return func(c *decoderConfig) { c.wantSequence = want } }

// WithQuality enables or disables decoding the Quality column.
func WithQuality(want bool) Opt { return func(c *decoderConfig) { c.wantQuality = want } }

// WithMask enables or disables applying the Mask column to decoded
// sequence bytes. It has no effect unless Sequence decoding is also
// enabled.
func WithMask(want bool) Opt { return func(c *decoderConfig) { c.wantMask = want } }

type sequenceReader interface {
	Next(length uint64) ([]byte, error)
}

// Decoder reads records from a NAF archive, decompressing only the
// columns an Opt asked for. It is not safe for concurrent use by
// multiple goroutines.
type Decoder struct {
	header   Header
	title    string
	hasTitle bool

	remaining uint64

	idReader      *colio.StringReader
	commentReader *colio.StringReader
	lengthReader  *colio.LengthReader
	maskReader    *colio.MaskReader
	seqReader     sequenceReader
	qualReader    *colio.TextReader

	maskState     colio.MaskState
	maskRemaining uint64

	closers []*zstd.Decoder
}

// NewDecoder parses r's header and block table and returns a Decoder
// ready to produce records with Next. Columns not selected by opts are
// located but never decompressed.
func NewDecoder(r ReadSeeker, opts ...Opt) (*Decoder, error) {
	cfg := defaultDecoderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	br := bufio.NewReader(r)
	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	d := &Decoder{header: h, remaining: h.NumberOfSequences}

	if h.Flags.Has(FlagTitle) {
		d.title, err = readTitle(br)
		if err != nil {
			return nil, err
		}
		d.hasTitle = true
	}

	if err := syncAfterBufio(r, br); err != nil {
		return nil, errors.Wrap(err, "naf: realigning stream after header")
	}

	type column struct {
		flag Flags
		want bool
	}
	columns := [...]column{
		{FlagID, cfg.wantID},
		{FlagComment, cfg.wantComment},
		{FlagLength, true}, // always decoded when present: drives record boundaries
		{FlagMask, cfg.wantMask && cfg.wantSequence},
		{FlagSequence, cfg.wantSequence},
		{FlagQuality, cfg.wantQuality},
	}

	type location struct {
		flag       Flags
		want       bool
		start, end int64
	}

	// First pass: walk the block table reading r directly and
	// unsynchronized. No decoder is attached yet in this pass, so
	// nothing else can be concurrently touching r's position — once a
	// zstd.Decoder is opened over a Slice, its background goroutine
	// reads eagerly through sharedReader, so every access to r from this
	// point on must go through sharedReader's lock instead (see the
	// second pass below).
	var locations []location
	for _, col := range columns {
		if !h.Flags.Has(col.flag) {
			continue
		}
		if _, err := readVarintReader(r); err != nil { // uncompressed length: informational only
			return nil, err
		}
		compressedLen, err := readVarintReader(r)
		if err != nil {
			return nil, err
		}
		start, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, errors.Wrap(err, "naf: locating column data")
		}
		end := start + int64(compressedLen)
		if _, err := r.Seek(end, io.SeekStart); err != nil {
			return nil, errors.Wrap(err, "naf: advancing past column data")
		}
		locations = append(locations, location{flag: col.flag, want: col.want, start: start, end: end})
	}

	// Second pass: every remaining access to r goes through shared,
	// under its lock, including the background reads zstd.Decoder
	// issues as soon as it's opened.
	shared := newSharedReader(r)
	for _, loc := range locations {
		if !loc.want {
			continue
		}

		slice := newSlice(shared, loc.start, loc.end)
		zr, err := newZstdColumnDecoder(slice)
		if err != nil {
			return nil, errors.Wrapf(err, "naf: opening %v column", loc.flag)
		}
		d.closers = append(d.closers, zr)

		switch loc.flag {
		case FlagID:
			d.idReader = colio.NewStringReader(zr)
		case FlagComment:
			d.commentReader = colio.NewStringReader(zr)
		case FlagLength:
			d.lengthReader = colio.NewLengthReader(zr)
		case FlagMask:
			d.maskReader = colio.NewMaskReader(zr)
		case FlagSequence:
			if h.SequenceType.IsNucleotide() {
				seqType := h.SequenceType
				d.seqReader = colio.NewNucleotideReader(zr, func(code byte) byte {
					return decodeNucleotide(seqType, code)
				})
			} else {
				d.seqReader = colio.NewTextReader(zr)
			}
		case FlagQuality:
			d.qualReader = colio.NewTextReader(zr)
		}
	}

	return d, nil
}

// Header returns the archive's parsed header.
func (d *Decoder) Header() Header { return d.header }

// SequenceType is a shorthand for Header().SequenceType.
func (d *Decoder) SequenceType() SequenceType { return d.header.SequenceType }

// Title returns the archive's optional title and whether one was
// present.
func (d *Decoder) Title() (string, bool) { return d.title, d.hasTitle }

// Len reports how many records have not yet been returned by Next.
func (d *Decoder) Len() uint64 { return d.remaining }

// Next returns the next record, or io.EOF once every record declared by
// the header has been returned. Once Next returns io.EOF it keeps
// returning io.EOF.
func (d *Decoder) Next() (Record, error) {
	if d.remaining == 0 {
		return Record{}, io.EOF
	}

	var rec Record

	if d.idReader != nil {
		id, err := d.idReader.Next()
		if err != nil {
			return Record{}, asUtf8Error(err)
		}
		rec.ID, rec.HasID = id, true
	}

	if d.commentReader != nil {
		comment, err := d.commentReader.Next()
		if err != nil {
			return Record{}, asUtf8Error(err)
		}
		rec.Comment, rec.HasComment = comment, true
	}

	var length uint64
	haveLength := false
	if d.lengthReader != nil {
		l, err := d.lengthReader.Next()
		if err != nil {
			return Record{}, err
		}
		rec.Length, rec.HasLength = l, true
		length, haveLength = l, true
	}

	if d.seqReader != nil {
		if !haveLength {
			return Record{}, missingField("length")
		}
		seq, err := d.seqReader.Next(length)
		if err != nil {
			return Record{}, err
		}
		if d.maskReader != nil {
			if err := d.applyMask(seq); err != nil {
				return Record{}, err
			}
		}
		rec.Sequence, rec.HasSequence = seq, true
	}

	if d.qualReader != nil {
		if !haveLength {
			return Record{}, missingField("length")
		}
		quality, err := d.qualReader.Next(length)
		if err != nil {
			return Record{}, err
		}
		rec.Quality, rec.HasQuality = quality, true
	}

	d.remaining--
	return rec, nil
}

// applyMask lowercases the ranges of seq that the mask stream's cursor
// marks Masked, pulling fresh runs from maskReader as the cursor
// crosses run boundaries. The cursor is persistent across calls, since
// a run can span multiple records.
func (d *Decoder) applyMask(seq []byte) error {
	for i := 0; i < len(seq); {
		if d.maskRemaining == 0 {
			unit, ok, err := d.maskReader.Next()
			if err != nil {
				return err
			}
			if !ok {
				return io.ErrUnexpectedEOF
			}
			d.maskState, d.maskRemaining = unit.State, unit.N
		}
		take := uint64(len(seq) - i)
		if take > d.maskRemaining {
			take = d.maskRemaining
		}
		if d.maskState == colio.Masked {
			toLower(seq[i : uint64(i)+take])
		}
		i += int(take)
		d.maskRemaining -= take
	}
	return nil
}

func toLower(b []byte) {
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
}

// asUtf8Error converts colio's string-validity error into the package's
// own Utf8Error, the way Encoder.Push converts colio.InvalidByteError
// into InvalidSequenceError.
func asUtf8Error(err error) error {
	var invalid *colio.InvalidUTF8Error
	if errors.As(err, &invalid) {
		return &Utf8Error{}
	}
	return err
}

// Close releases the per-column decompressors. It does not close the
// underlying ReadSeeker, which the caller owns.
func (d *Decoder) Close() error {
	for _, zr := range d.closers {
		zr.Close()
	}
	d.closers = nil
	return nil
}
