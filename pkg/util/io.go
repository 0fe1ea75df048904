package util

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/dsnet/compress/bzip2"
)

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var firstErr error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// OpenFile. .bz2 files are decompressed transparently
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".bz2") {
		return &readCloser{Reader: bufio.NewReader(f), closers: []io.Closer{f}}, nil
	}

	bz, err := bzip2.NewReader(f, nil)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &readCloser{Reader: bufio.NewReader(bz), closers: []io.Closer{f, bz}}, nil
}

type writeCloser struct {
	*bufio.Writer
	closers []io.Closer
}

func (w *writeCloser) Close() error {
	firstErr := w.Writer.Flush()
	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// CreateFile. .bz2 files are compressed transparently
func CreateFile(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".bz2") {
		return &writeCloser{Writer: bufio.NewWriter(f), closers: []io.Closer{f}}, nil
	}

	bz, err := bzip2.NewWriter(f, &bzip2.WriterConfig{})
	if err != nil {
		f.Close()
		return nil, err
	}
	return &writeCloser{Writer: bufio.NewWriter(bz), closers: []io.Closer{f, bz}}, nil
}
