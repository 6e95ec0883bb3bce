package main

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// mimeSniffLen matches the default read limit of mimetype.
const mimeSniffLen = 3072

// openDecompressed sniffs the stream type and transparently decompresses
// gzip and bzip2 archives of exported logs. Anything else is read as is.
func openDecompressed(rc io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReaderSize(rc, mimeSniffLen)
	head, err := br.Peek(mimeSniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("error sniffing log stream: %w", err)
	}

	mtype := mimetype.Detect(head)
	switch {
	case mtype.Is("application/gzip"):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("error opening gzip stream: %w", err)
		}
		return newMultiReadCloser(gz, gz, rc), nil

	case mtype.Is("application/x-bzip2"):
		return newMultiReadCloser(bzip2.NewReader(br), rc), nil
	}
	return newMultiReadCloser(br, rc), nil
}
