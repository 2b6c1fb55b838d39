package naf

import (
	"bytes"
	"io"
	"os"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// Storage is the capability interface an Encoder uses for per-column
// scratch space (§4.10): create a write-only buffer, query its length
// once writing is done, stream its contents out, and release it. Two
// concrete backends implement it, MemoryStorage and DiskStorage; the
// backend is picked once, at encoder construction.
type Storage interface {
	// CreateBuffer returns a new write-only scratch buffer.
	CreateBuffer() (Buffer, error)
	// Close releases any resources (e.g. a temp directory) held by the
	// storage backend itself, beyond individual buffers.
	Close() error
}

// Buffer is a single column's scratch space: written once, then read
// back in full exactly once.
type Buffer interface {
	io.Writer
	// Len returns the number of bytes written so far.
	Len() (int64, error)
	// WriteTo copies the buffer's full contents to w and is only valid
	// after writing has finished.
	WriteTo(w io.Writer) error
	// Close releases the buffer.
	Close() error
}

// MemoryStorage backs every column's scratch space with an in-memory
// growable byte buffer. Appropriate for archives whose per-column
// compressed size comfortably fits in RAM.
type MemoryStorage struct{}

var _ Storage = MemoryStorage{}

func (MemoryStorage) CreateBuffer() (Buffer, error) {
	return &memoryBuffer{}, nil
}

func (MemoryStorage) Close() error { return nil }

type memoryBuffer struct {
	buf bytes.Buffer
}

func (b *memoryBuffer) Write(p []byte) (int, error) { return b.buf.Write(p) }
func (b *memoryBuffer) Len() (int64, error)          { return int64(b.buf.Len()), nil }
func (b *memoryBuffer) WriteTo(w io.Writer) error {
	_, err := w.Write(b.buf.Bytes())
	return err
}
func (b *memoryBuffer) Close() error { return nil }

// DiskStorage backs every column's scratch space with an unnamed file
// inside a temporary directory created for one encoder. Use this when
// archives are large enough that holding every column in RAM at once is
// undesirable.
type DiskStorage struct {
	dir string
}

var _ Storage = (*DiskStorage)(nil)

// NewDiskStorage creates a fresh temporary directory under dir (the OS
// default scratch location if dir is empty) to hold one encoder's
// per-column scratch files.
func NewDiskStorage(dir string) (*DiskStorage, error) {
	tmp, err := os.MkdirTemp(dir, "naf-encoder-")
	if err != nil {
		return nil, errors.Wrap(err, "naf: creating scratch directory")
	}
	log.Debug.Printf("naf: using scratch directory %s", tmp)
	return &DiskStorage{dir: tmp}, nil
}

func (s *DiskStorage) CreateBuffer() (Buffer, error) {
	f, err := os.CreateTemp(s.dir, "column-")
	if err != nil {
		return nil, errors.Wrap(err, "naf: creating scratch file")
	}
	// The directory entry is unneeded once the handle is open: the file
	// data survives until the handle is closed, and Close always
	// happens, even on error exit, because the encoder's Finalize path
	// unconditionally closes every column buffer.
	_ = os.Remove(f.Name())
	return &diskBuffer{f: f}, nil
}

func (s *DiskStorage) Close() error {
	return errors.Wrap(os.RemoveAll(s.dir), "naf: removing scratch directory")
}

type diskBuffer struct {
	f *os.File
}

func (b *diskBuffer) Write(p []byte) (int, error) { return b.f.Write(p) }

func (b *diskBuffer) Len() (int64, error) {
	info, err := b.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// WriteTo rewinds the scratch file before copying it out, matching the
// original's "tempfile" backend: read side starts from byte zero
// regardless of where the write side left off.
func (b *diskBuffer) WriteTo(w io.Writer) error {
	if _, err := b.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err := io.Copy(w, b.f)
	return err
}

func (b *diskBuffer) Close() error {
	return b.f.Close()
}
