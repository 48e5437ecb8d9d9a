// Package pager is the buffered file abstraction that owns on-disk pages
// and serves them as in-memory frames: lazy load on first access, explicit
// flush, fail-hard on any invariant violation.
package pager

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"btreedb/internal/dberrors"
	"btreedb/internal/page"
)

// MaxPages is the fixed frame-table size. It doubles as the database size
// cap: 100 pages * 4096 bytes.
const MaxPages = 100

// Pager owns the file descriptor and the frame table. It is not safe for
// concurrent use; the engine is single-threaded by design (spec §5).
type Pager struct {
	file     *os.File
	fileLen  int64
	numPages uint32
	frames   [MaxPages]*[page.Size]byte

	log *logrus.Entry
}

// Open opens path read/write, creating it with owner-only permissions if it
// does not exist. It fails hard if the resulting file length is not a
// multiple of the page size.
func Open(path string) (*Pager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, dberrors.Wrapf(dberrors.Fatal, err, "pager: unable to open file %q", path)
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, dberrors.Wrapf(dberrors.Fatal, err, "pager: unable to stat file %q", path)
	}
	length := fi.Size()
	if length%page.Size != 0 {
		return nil, dberrors.NewFatal("db file is not a whole number of pages")
	}

	log := logrus.WithFields(logrus.Fields{"component": "pager", "path": path})
	log.WithField("pages", length/page.Size).Info("opened database file")

	return &Pager{
		file:     f,
		fileLen:  length,
		numPages: uint32(length / page.Size),
		log:      log,
	}, nil
}

// NumPages reports the current logical page count, including pages that
// have been allocated in memory but not yet flushed.
func (p *Pager) NumPages() uint32 { return p.numPages }

// GetPage returns the 4096-byte frame for n, loading it from disk (or
// zero-initializing it, if it lies beyond EOF) on first access.
func (p *Pager) GetPage(n uint32) (*[page.Size]byte, error) {
	if n >= MaxPages {
		return nil, dberrors.NewFatal("tried to fetch page number out of bounds")
	}

	if p.frames[n] == nil {
		frame := new([page.Size]byte)

		diskPages := uint32((p.fileLen + page.Size - 1) / page.Size)
		if n < diskPages {
			if _, err := p.file.Seek(int64(n)*page.Size, io.SeekStart); err != nil {
				return nil, dberrors.Wrapf(dberrors.Fatal, err, "pager: seek to page %d", n)
			}
			if _, err := io.ReadFull(p.file, frame[:]); err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
				return nil, dberrors.Wrapf(dberrors.Fatal, err, "pager: read page %d", n)
			}
		}

		p.frames[n] = frame
		if n >= p.numPages {
			p.numPages = n + 1
		}
	}
	return p.frames[n], nil
}

// GetUnusedPageNum returns the page number the tree should use for its next
// allocation: simply the next page past the current logical end of file.
func (p *Pager) GetUnusedPageNum() uint32 { return p.numPages }

// Flush writes the full 4096-byte frame n to disk. It fails hard if the
// frame has never been loaded.
func (p *Pager) Flush(n uint32) error {
	frame := p.frames[n]
	if frame == nil {
		return dberrors.NewFatal("tried to flush a null page")
	}
	if _, err := p.file.Seek(int64(n)*page.Size, io.SeekStart); err != nil {
		return dberrors.Wrapf(dberrors.Fatal, err, "pager: seek to page %d", n)
	}
	if _, err := p.file.Write(frame[:]); err != nil {
		return dberrors.Wrapf(dberrors.Fatal, err, "pager: write page %d", n)
	}
	p.log.WithField("page", n).Debug("flushed page")
	return nil
}

// Close flushes every loaded frame and closes the file. It must not leave
// any dirty frame behind.
func (p *Pager) Close() error {
	for n := uint32(0); n < p.numPages; n++ {
		if p.frames[n] == nil {
			continue
		}
		if err := p.Flush(n); err != nil {
			return errors.Wrap(err, "pager: close")
		}
		p.frames[n] = nil
	}
	p.log.Info("closed database file")
	return p.file.Close()
}
