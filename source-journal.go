package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
)

const (
	defaultJournalUnit    = "endlessh.service"
	defaultJournalCommand = "journalctl"
)

var _ logSource = &journalSource{}

// journalSource reads the messages of one systemd unit through journalctl.
type journalSource struct {
	Command string
	Unit    string
	User    bool
}

func (js *journalSource) String() string {
	if js.User {
		return "journal (user unit " + js.Unit + ")"
	}
	return "journal (unit " + js.Unit + ")"
}

func (js *journalSource) args(w window) []string {
	args := []string{"--quiet", "--no-pager", "--output=cat"}
	if js.User {
		args = append(args, "--user", "--user-unit="+js.Unit)
	} else {
		args = append(args, "--unit="+js.Unit)
	}

	until := w.End.Unix()
	if w.End.Nanosecond() > 0 {
		until++
	}
	return append(args,
		"--since=@"+strconv.FormatInt(w.Start.Unix(), 10),
		"--until=@"+strconv.FormatInt(until, 10),
	)
}

func (js *journalSource) Open(ctx context.Context, w window) (io.ReadCloser, error) {
	command := js.Command
	if command == "" {
		command = defaultJournalCommand
	}

	cmd := exec.CommandContext(ctx, command, js.args(w)...)
	stderr := newTruncatedBuffer(4096)
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("error creating journal pipe: %w", err)
	}
	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("error starting %s: %w", command, err)
	}
	return &journalReader{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type journalReader struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *truncatedBuffer
	eof    bool
}

func (jr *journalReader) Read(p []byte) (n int, err error) {
	n, err = jr.stdout.Read(p)
	if errors.Is(err, io.EOF) {
		jr.eof = true
	}
	return
}

// Close reaps journalctl. A reader abandoned before EOF kills the process
// and does not report its exit status.
func (jr *journalReader) Close() error {
	if !jr.eof {
		jr.cmd.Process.Kill()
		jr.cmd.Wait()
		return nil
	}

	if err := jr.cmd.Wait(); err != nil {
		if msg := jr.stderr.String(); msg != "" {
			return fmt.Errorf("error reading journal: %w: %s", err, msg)
		}
		return fmt.Errorf("error reading journal: %w", err)
	}
	return nil
}
