package main

import (
	"fmt"
	"io"

	"go.uber.org/multierr"
)

// multiReadCloser reads from Reader and closes every closer in order, which
// lets a decompressor be stacked on top of the stream it decodes.
type multiReadCloser struct {
	io.Reader

	closers []io.Closer
}

func newMultiReadCloser(r io.Reader, closers ...io.Closer) *multiReadCloser {
	return &multiReadCloser{Reader: r, closers: closers}
}

func (mrc *multiReadCloser) Close() (err error) {
	for _, c := range mrc.closers {
		if errc := c.Close(); errc != nil {
			err = multierr.Append(err, errc)
		}
	}
	if err != nil {
		err = fmt.Errorf("error closing reader(s): %w", err)
	}
	return
}
