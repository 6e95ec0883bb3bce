package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

const (
	outputText = "text"
	outputJSON = "json"
)

type runOptions struct {
	window   windowOptions
	unit     string
	user     bool
	geoIP    bool
	file     string
	s3Key    string
	output   string
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "tarpit-summary",
		Short: "Create summary of the endlessh log",
		Long: `Create a per source summary of the connections held by a tarpit.

Connections are read from the journal of the tarpit unit (default), from an
exported log file or from an archived object in S3, correlated from their
ACCEPT and CLOSE lines, and grouped by source address.

Examples:
  tarpit-summary --today
  tarpit-summary --yesterday --geo-ip
  tarpit-summary --start 2025-08-01T00:00:00 --end 2025-08-02T00:00:00
  tarpit-summary --today --file endlessh.log.gz -o json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.unit, "unit", "u", defaultJournalUnit, "The systemd unit name")
	f.BoolVarP(&opts.user, "user", "U", false, "Execute for current user instead of system")
	f.BoolVarP(&opts.geoIP, "geo-ip", "g", false, "Look up the geo ip information")
	f.StringVar(&opts.window.Start, "start", "", "Start datetime (e.g., 2025-08-01T00:00:00)")
	f.StringVar(&opts.window.End, "end", "", "End datetime (e.g., 2025-08-02T00:00:00)")
	f.BoolVar(&opts.window.Today, "today", false, "Use today's full date range")
	f.BoolVar(&opts.window.Yesterday, "yesterday", false, "Use yesterday's full date range")
	f.StringVar(&opts.file, "file", "", "Read an exported log file (plain, gzip or bzip2) instead of the journal")
	f.StringVar(&opts.s3Key, "s3-object", "", "Read an archived log object from the configured S3 bucket instead of the journal")
	f.StringVarP(&opts.output, "output", "o", outputText, "Output format: text or json")
	f.StringVar(&opts.logLevel, "log-level", "", "Diagnostics log level (debug, info, warn, error)")

	cmd.AddCommand(newServeCmd())
	return cmd
}

func runSummary(cmd *cobra.Command, opts runOptions) (err error) {
	w, err := resolveWindow(opts.window, time.Now())
	if err != nil {
		return err
	}
	if opts.output != outputText && opts.output != outputJSON {
		return usageError{fmt.Errorf("unknown output format %q", opts.output)}
	}
	if opts.file != "" && opts.s3Key != "" {
		return usageError{fmt.Errorf("--file and --s3-object are mutually exclusive")}
	}

	cfg, err := newConfig()
	if err != nil {
		return err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if cmd.Flags().Changed("unit") {
		cfg.Journal.Unit = opts.unit
	}
	if cmd.Flags().Changed("user") {
		cfg.Journal.User = opts.user
	}
	logger := newLogger(cfg.Log, cmd.ErrOrStderr())

	ctx := cmd.Context()
	src, err := newLogSource(ctx, cfg, opts.file, opts.s3Key)
	if err != nil {
		return err
	}

	smrOpts := []summarizerFunc{summarizerWithLogger(logger)}
	if opts.geoIP {
		smrOpts = append(smrOpts, cfg.summarizerOptions()...)
	}
	smr, err := newSummarizer(smrOpts...)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, smr.Close()) }()

	s, err := smr.Summarize(ctx, src, w, opts.geoIP)
	if err != nil {
		return err
	}
	return writeSummary(cmd.OutOrStdout(), s, opts.output)
}

func newLogSource(ctx context.Context, cfg *config, file, s3Key string) (logSource, error) {
	switch {
	case file != "":
		return &fileSource{Path: file}, nil
	case s3Key != "":
		if cfg.S3.Bucket == "" {
			return nil, usageError{fmt.Errorf("--s3-object requires %sS3_BUCKET to be set", configEnvPrefix)}
		}
		client, err := newS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return &s3Source{Client: client, Bucket: cfg.S3.Bucket, Key: s3Key}, nil
	}
	return &journalSource{Command: cfg.Journal.Command, Unit: cfg.Journal.Unit, User: cfg.Journal.User}, nil
}

func writeSummary(w io.Writer, s *summary, output string) error {
	if output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s.toResponse())
	}
	return s.writeText(w)
}
