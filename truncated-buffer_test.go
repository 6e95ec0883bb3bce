package main

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncatedBuffer(t *testing.T) {
	table := []struct {
		name  string
		limit int
		in    []string
		exp   string
	}{
		{
			name:  "under limit",
			limit: 64,
			in:    []string{"Failed to open journal\n"},
			exp:   "Failed to open journal",
		},
		{
			name:  "single write over limit",
			limit: 6,
			in:    []string{"No journal files were found."},
			exp:   "No jou... (22 bytes truncated)",
		},
		{
			name:  "limit reached across writes",
			limit: 10,
			in:    []string{"Hint: ", "You are currently not seeing messages", " from other users"},
			exp:   "Hint: You... (50 bytes truncated)",
		},
		{
			name:  "nothing kept",
			limit: 0,
			in:    []string{"abc"},
			exp:   "... (3 bytes truncated)",
		},
	}

	for _, tt := range table {
		buff := newTruncatedBuffer(tt.limit)
		total := 0
		for _, s := range tt.in {
			n, err := io.Copy(buff, strings.NewReader(s))
			require.NoError(t, err, tt.name)
			assert.Equal(t, int64(len(s)), n, "%s: should signal that it writes all bytes", tt.name)
			total += len(s)
		}
		assert.Equal(t, total, buff.Len(), "%s: should count the dropped bytes", tt.name)
		assert.Equal(t, tt.exp, buff.String(), tt.name)
	}
}
