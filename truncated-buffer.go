package main

import (
	"bytes"
	"fmt"
)

// truncatedBuffer keeps the first limit bytes written to it and counts the
// rest. Writes never fail because of the limit.
type truncatedBuffer struct {
	buff  bytes.Buffer
	limit int
	n     int
}

func newTruncatedBuffer(limit int) *truncatedBuffer {
	return &truncatedBuffer{limit: limit}
}

func (lb *truncatedBuffer) Write(p []byte) (n int, err error) {
	lb.n += len(p)

	room := lb.limit - lb.buff.Len()
	if room <= 0 {
		return len(p), nil
	}
	if room > len(p) {
		room = len(p)
	}
	if _, err = lb.buff.Write(p[:room]); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Len is the number of bytes written, including the dropped ones.
func (lb *truncatedBuffer) Len() int {
	return lb.n
}

func (lb *truncatedBuffer) String() string {
	s := string(bytes.TrimSpace(lb.buff.Bytes()))
	if dropped := lb.n - lb.buff.Len(); dropped > 0 {
		s += fmt.Sprintf("... (%d bytes truncated)", dropped)
	}
	return s
}
