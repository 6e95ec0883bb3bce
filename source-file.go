package main

import (
	"context"
	"fmt"
	"io"
	"os"
)

var _ logSource = &fileSource{}

// fileSource reads an exported log file, optionally compressed.
type fileSource struct {
	Path string
}

func (fs *fileSource) String() string { return "file " + fs.Path }

func (fs *fileSource) Open(ctx context.Context, w window) (io.ReadCloser, error) {
	f, err := os.Open(fs.Path)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}

	rc, err := openDecompressed(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error reading log file %s: %w", fs.Path, err)
	}
	return rc, nil
}
