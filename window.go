package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

const windowTimeLayout = "2006-01-02T15:04:05"

const (
	presetToday     = "today"
	presetYesterday = "yesterday"
)

// usageError marks invalid invocation arguments. They are reported before
// any log line is read.
type usageError struct {
	error
}

func (e usageError) Unwrap() error { return e.error }

func isUsageError(err error) bool {
	var ue usageError
	return errors.As(err, &ue)
}

// window is the observation period [Start, End).
type window struct {
	Start time.Time
	End   time.Time
}

func (w window) contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

type windowOptions struct {
	Start     string
	End       string
	Today     bool
	Yesterday bool
}

func (o windowOptions) preset() bool { return o.Today || o.Yesterday }

// resolveWindow validates the options and turns them into a window. Explicit
// timestamps and presets are interpreted in the location of now.
func resolveWindow(opts windowOptions, now time.Time) (w window, err error) {
	var result *multierror.Error
	if opts.Today && opts.Yesterday {
		result = multierror.Append(result, fmt.Errorf("--today and --yesterday are mutually exclusive"))
	}
	if opts.preset() && (opts.Start != "" || opts.End != "") {
		result = multierror.Append(result, fmt.Errorf("when using --today or --yesterday, you cannot specify --start or --end"))
	}
	if !opts.preset() && (opts.Start == "" || opts.End == "") {
		result = multierror.Append(result, fmt.Errorf("you must specify both --start and --end if not using --today or --yesterday"))
	}
	if err = result.ErrorOrNil(); err != nil {
		return w, usageError{err}
	}

	switch {
	case opts.Today:
		return dayWindow(now), nil
	case opts.Yesterday:
		return dayWindow(now.AddDate(0, 0, -1)), nil
	}

	if w.Start, err = time.ParseInLocation(windowTimeLayout, opts.Start, now.Location()); err != nil {
		result = multierror.Append(result, fmt.Errorf("datetime %q does not match format %s", opts.Start, windowTimeLayout))
	}
	if w.End, err = time.ParseInLocation(windowTimeLayout, opts.End, now.Location()); err != nil {
		result = multierror.Append(result, fmt.Errorf("datetime %q does not match format %s", opts.End, windowTimeLayout))
	}
	if result == nil && !w.Start.Before(w.End) {
		result = multierror.Append(result, fmt.Errorf("start %s must be before end %s", opts.Start, opts.End))
	}
	if err = result.ErrorOrNil(); err != nil {
		return window{}, usageError{err}
	}
	return w, nil
}

func windowFromPreset(preset string, now time.Time) (window, error) {
	switch preset {
	case presetToday:
		return resolveWindow(windowOptions{Today: true}, now)
	case presetYesterday:
		return resolveWindow(windowOptions{Yesterday: true}, now)
	}
	return window{}, usageError{fmt.Errorf("unknown preset %q, expecting %s or %s", preset, presetToday, presetYesterday)}
}

// dayWindow spans the local calendar day containing t.
func dayWindow(t time.Time) window {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return window{Start: start, End: start.AddDate(0, 0, 1)}
}
