package naf

import (
	"io"

	"github.com/grailbio/base/log"
	"github.com/grailbio/naf/encoding/naf/colio"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// EncoderOpt configures an Encoder.
type EncoderOpt func(*encoderConfig)

type encoderConfig struct {
	sequenceType  SequenceType
	formatVersion FormatVersion // 0 means "let the encoder recommend one"
	lineLength    uint64
	nameSeparator byte
	title         string
	hasTitle      bool

	withID, withComment, withLength, withSequence, withQuality bool

	compressionLevel int
	storage          Storage
}

func defaultEncoderConfig(t SequenceType) encoderConfig {
	return encoderConfig{
		sequenceType:  t,
		nameSeparator: DefaultNameSeparator,
		withID:        true,
		withComment:   false,
		withLength:    true,
		withSequence:  true,
		withQuality:   false,
		storage:       MemoryStorage{},
	}
}

// WithFormatVersion pins the header's format version. If unset, the
// encoder recommends one per §4.8: V1 for DNA, V2 otherwise.
func WithFormatVersion(v FormatVersion) EncoderOpt {
	return func(c *encoderConfig) { c.formatVersion = v }
}

// WithLineLength sets the header's advisory source line-length field.
func WithLineLength(n uint64) EncoderOpt {
	return func(c *encoderConfig) { c.lineLength = n }
}

// WithNameSeparator overrides the header's name separator byte.
func WithNameSeparator(b byte) EncoderOpt {
	return func(c *encoderConfig) { c.nameSeparator = b }
}

// WithTitle adds an optional archive title, written right after the
// header.
func WithTitle(title string) EncoderOpt {
	return func(c *encoderConfig) { c.title, c.hasTitle = title, true }
}

// WithIDColumn enables or disables the Id column. Enabled by default.
func WithIDColumn(want bool) EncoderOpt { return func(c *encoderConfig) { c.withID = want } }

// WithCommentColumn enables or disables the Comment column. Disabled by
// default, since not every archive annotates records beyond their id.
func WithCommentColumn(want bool) EncoderOpt {
	return func(c *encoderConfig) { c.withComment = want }
}

// WithLengthColumn enables or disables the Length column. Enabled by
// default; required whenever Sequence or Quality is enabled, since
// their per-record boundaries come from the declared length.
func WithLengthColumn(want bool) EncoderOpt {
	return func(c *encoderConfig) { c.withLength = want }
}

// WithSequenceColumn enables or disables the Sequence column. Enabled
// by default.
func WithSequenceColumn(want bool) EncoderOpt {
	return func(c *encoderConfig) { c.withSequence = want }
}

// WithQualityColumn enables or disables the Quality column. Disabled by
// default, since not every sequence type carries quality scores.
func WithQualityColumn(want bool) EncoderOpt {
	return func(c *encoderConfig) { c.withQuality = want }
}

// WithCompressionLevel sets the Zstandard compression level applied to
// every column. Zero selects klauspost's default.
func WithCompressionLevel(level int) EncoderOpt {
	return func(c *encoderConfig) { c.compressionLevel = level }
}

// WithStorage selects the scratch-space backend used while columns
// accumulate, before Finalize streams them out in order. Defaults to
// MemoryStorage.
func WithStorage(s Storage) EncoderOpt {
	return func(c *encoderConfig) { c.storage = s }
}

// countingWriter counts bytes that pass through it, used to recover a
// column's uncompressed length for the block table without buffering
// the uncompressed bytes separately.
type countingWriter struct {
	w io.Writer
	n uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n)
	return n, err
}

// encColumn is one column's scratch buffer and streaming compressor.
type encColumn struct {
	buf     Buffer
	zw      *zstd.Encoder
	counter *countingWriter
}

func (e *encColumn) uncompressedLen() uint64 { return e.counter.n }

func (e *encColumn) compressedLen() (int64, error) { return e.buf.Len() }

func (e *encColumn) finish() error {
	return errors.Wrap(e.zw.Close(), "naf: finishing column compressor")
}

func (e *encColumn) writeTo(w io.Writer) error { return e.buf.WriteTo(w) }

func (e *encColumn) close() error { return e.buf.Close() }

// Encoder accumulates pushed records into per-column compressed scratch
// buffers and, on Finalize, streams them out as a complete NAF archive.
// It is not safe for concurrent use by multiple goroutines.
type Encoder struct {
	cfg       encoderConfig
	numPushed uint64
	finalized bool

	id       *encColumn
	idw      *colio.StringWriter
	comment  *encColumn
	commentw *colio.StringWriter
	length   *encColumn
	lengthw  *colio.LengthWriter
	sequence *encColumn
	seqw     interface{ Put([]byte) error }
	quality  *encColumn
	qualw    *colio.TextWriter
}

// NewEncoder returns an Encoder for an archive of sequence type t.
func NewEncoder(t SequenceType, opts ...EncoderOpt) (*Encoder, error) {
	cfg := defaultEncoderConfig(t)
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.formatVersion == V1 && cfg.sequenceType != DNA {
		return nil, errors.New("naf: format version 1 only supports DNA archives")
	}
	if !isPrintable(cfg.nameSeparator) {
		return nil, ErrBadHeader
	}

	e := &Encoder{cfg: cfg}

	var err error
	if cfg.withID {
		if e.id, err = e.openColumn(); err != nil {
			return nil, err
		}
		e.idw = colio.NewStringWriter(e.id.counter, true)
	}
	if cfg.withComment {
		if e.comment, err = e.openColumn(); err != nil {
			return nil, err
		}
		e.commentw = colio.NewStringWriter(e.comment.counter, false)
	}
	if cfg.withLength {
		if e.length, err = e.openColumn(); err != nil {
			return nil, err
		}
		e.lengthw = colio.NewLengthWriter(e.length.counter)
	}
	if cfg.withSequence {
		if e.sequence, err = e.openColumn(); err != nil {
			return nil, err
		}
		if cfg.sequenceType.IsNucleotide() {
			e.seqw = colio.NewNucleotideWriter(e.sequence.counter, encodeNucleotide)
		} else {
			e.seqw = colio.NewTextWriter(e.sequence.counter)
		}
	}
	if cfg.withQuality {
		if e.quality, err = e.openColumn(); err != nil {
			return nil, err
		}
		e.qualw = colio.NewTextWriter(e.quality.counter)
	}

	return e, nil
}

func (e *Encoder) openColumn() (*encColumn, error) {
	buf, err := e.cfg.storage.CreateBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "naf: allocating column buffer")
	}
	zw, err := newZstdColumnEncoder(buf, e.cfg.compressionLevel)
	if err != nil {
		buf.Close()
		return nil, errors.Wrap(err, "naf: opening column compressor")
	}
	return &encColumn{buf: buf, zw: zw, counter: &countingWriter{w: zw}}, nil
}

// Push appends one record. Every column the Encoder was configured to
// write must be present on rec, except Length, which is taken from
// Sequence or Quality when rec carries no explicit Length. Sequence,
// Quality, and an explicit Length must agree on the record's length.
func (e *Encoder) Push(rec Record) error {
	if e.finalized {
		return errors.New("naf: Push called after Finalize")
	}

	if e.cfg.withID {
		if !rec.HasID {
			return missingField("id")
		}
		if err := e.idw.Put(rec.ID); err != nil {
			return err
		}
	}
	if e.cfg.withComment {
		if !rec.HasComment {
			return missingField("comment")
		}
		if err := e.commentw.Put(rec.Comment); err != nil {
			return err
		}
	}

	var length uint64
	haveLength := false
	if rec.HasLength {
		length, haveLength = rec.Length, true
	}
	if e.cfg.withSequence {
		if !rec.HasSequence {
			return missingField("sequence")
		}
		if haveLength && uint64(len(rec.Sequence)) != length {
			return &InvalidLengthError{Reason: "sequence length does not match declared length"}
		}
		length, haveLength = uint64(len(rec.Sequence)), true
	}
	if e.cfg.withQuality {
		if !rec.HasQuality {
			return missingField("quality")
		}
		if haveLength && uint64(len(rec.Quality)) != length {
			return &InvalidLengthError{Reason: "quality length does not match declared length"}
		}
		length, haveLength = uint64(len(rec.Quality)), true
	}
	if e.cfg.withLength {
		if !haveLength {
			return missingField("length")
		}
		if err := e.lengthw.Put(length); err != nil {
			return err
		}
	}

	if e.cfg.withSequence {
		if err := e.seqw.Put(rec.Sequence); err != nil {
			var invalid *colio.InvalidByteError
			if errors.As(err, &invalid) {
				return &InvalidSequenceError{Byte: invalid.Byte}
			}
			return err
		}
	}
	if e.cfg.withQuality {
		if err := e.qualw.Put(rec.Quality); err != nil {
			return err
		}
	}

	e.numPushed++
	return nil
}

// Finalize flushes every column and writes the complete archive to w:
// header, optional title, then each enabled column framed as
// varint(uncompressed_len), varint(compressed_len), compressed bytes,
// in the canonical order Ids, Comments, Lengths, Sequence, Quality. It
// must be called exactly once, and no further Push calls are valid
// afterward.
func (e *Encoder) Finalize(w io.Writer) error {
	if e.finalized {
		return errors.New("naf: Finalize called twice")
	}
	e.finalized = true

	if nw, ok := e.seqw.(*colio.NucleotideWriter); ok {
		if err := nw.Flush(); err != nil {
			return err
		}
	}

	columns := []*encColumn{e.id, e.comment, e.length, e.sequence, e.quality}
	for _, col := range columns {
		if col == nil {
			continue
		}
		if err := col.finish(); err != nil {
			return err
		}
	}
	defer func() {
		for _, col := range columns {
			if col != nil {
				if err := col.close(); err != nil {
					log.Error.Printf("naf: closing column buffer: %v", err)
				}
			}
		}
		if err := e.cfg.storage.Close(); err != nil {
			log.Error.Printf("naf: closing encoder storage: %v", err)
		}
	}()

	h := Header{
		FormatVersion:     e.cfg.formatVersion,
		SequenceType:      e.cfg.sequenceType,
		NameSeparator:     e.cfg.nameSeparator,
		LineLength:        e.cfg.lineLength,
		NumberOfSequences: e.numPushed,
	}
	if h.FormatVersion == 0 {
		h.FormatVersion = recommendedFormatVersion(e.cfg.sequenceType)
	}
	if e.cfg.withID {
		h.Flags |= FlagID
	}
	if e.cfg.withComment {
		h.Flags |= FlagComment
	}
	if e.cfg.withLength {
		h.Flags |= FlagLength
	}
	if e.cfg.withSequence {
		h.Flags |= FlagSequence
	}
	if e.cfg.withQuality {
		h.Flags |= FlagQuality
	}
	if e.cfg.hasTitle {
		h.Flags |= FlagTitle
	}

	if err := writeHeader(w, h); err != nil {
		return errors.Wrap(err, "naf: writing header")
	}
	if e.cfg.hasTitle {
		if err := writeTitle(w, e.cfg.title); err != nil {
			return errors.Wrap(err, "naf: writing title")
		}
	}

	for _, col := range columns {
		if col == nil {
			continue
		}
		compressedLen, err := col.compressedLen()
		if err != nil {
			return errors.Wrap(err, "naf: measuring column")
		}
		if err := writeVarint(w, col.uncompressedLen()); err != nil {
			return err
		}
		if err := writeVarint(w, uint64(compressedLen)); err != nil {
			return err
		}
		if err := col.writeTo(w); err != nil {
			return errors.Wrap(err, "naf: writing column")
		}
	}

	return nil
}
