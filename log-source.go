package main

import (
	"bufio"
	"bytes"
	"context"
	"io"
)

// maxLogLine bounds a single line; longer input is cut into chunks which
// then fail the grammar and are skipped.
const maxLogLine = 64 * 1024

var carriageReturn = []byte{'\r'}

// logSource supplies the raw tarpit log lines of one window, in order.
type logSource interface {
	Open(ctx context.Context, w window) (io.ReadCloser, error)
	String() string
}

func splitLogLine(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, bytes.TrimSuffix(data[:i], carriageReturn), nil
	}

	if len(data) >= maxLogLine || atEOF {
		return len(data), bytes.TrimSuffix(data, carriageReturn), nil
	}

	return 0, nil, nil
}

func newLogLineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 4096), maxLogLine)
	sc.Split(splitLogLine)
	return sc
}
