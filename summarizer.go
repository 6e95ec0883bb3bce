package main

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

type summarizer struct {
	locator locator
	logger  zerolog.Logger
}

func newSummarizer(opts ...summarizerFunc) (smr *summarizer, err error) {
	smr = &summarizer{logger: zerolog.Nop()}
	for _, opt := range opts {
		if err = opt(smr); err != nil {
			smr.Close()
			return nil, err
		}
	}
	return
}

type summarizerFunc func(*summarizer) error

func summarizerWithLogger(logger zerolog.Logger) summarizerFunc {
	return func(smr *summarizer) error {
		smr.logger = logger
		return nil
	}
}

func summarizerWithGeoIP(cityPath, asnPath string) summarizerFunc {
	return func(smr *summarizer) error {
		gl, err := newGeoIPLocator(cityPath, asnPath)
		if err != nil {
			return err
		}
		smr.locator = newCachedLocator(gl)
		return nil
	}
}

func summarizerWithIPInfo(baseURL, token string) summarizerFunc {
	return func(smr *summarizer) error {
		smr.locator = newCachedLocator(newIPInfoLocator(baseURL, token))
		return nil
	}
}

// Summarize correlates every event of the window and aggregates the closed
// connections. Any fatal error discards the whole summary, so no partial
// report can be produced.
func (smr *summarizer) Summarize(ctx context.Context, src logSource, w window, geo bool) (s *summary, err error) {
	if geo && smr.locator == nil {
		return nil, fmt.Errorf("geolocation requested but no locator is configured")
	}

	logger := smr.logger.With().Stringer("source", src).Logger()
	logger.Debug().Stringer("window", w).Msg("reading log")

	rc, err := src.Open(ctx, w)
	if err != nil {
		return nil, err
	}
	defer func() {
		if errc := rc.Close(); errc != nil {
			err = multierr.Append(err, errc)
			s = nil
		}
	}()

	cr := newCorrelator(logger)
	lines, events := 0, 0
	sc := newLogLineScanner(rc)
	for sc.Scan() {
		lines++
		ev, err := parseConnectionEvent(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("error parsing line %d: %w", lines, err)
		}
		if ev == nil || !w.contains(ev.Time) {
			continue
		}
		events++
		if err = cr.process(*ev); err != nil {
			return nil, fmt.Errorf("error correlating line %d: %w", lines, err)
		}
	}
	if err = sc.Err(); err != nil {
		return nil, fmt.Errorf("error reading log: %w", err)
	}

	groups, err := aggregate(cr.closedConnections())
	if err != nil {
		return nil, err
	}

	s = &summary{
		Source:      src.String(),
		Window:      w,
		Open:        cr.openConnections(),
		Closed:      cr.closedConnections(),
		Groups:      groups,
		Diagnostics: cr.diagnostics,
	}
	logger.Debug().
		Int("lines", lines).
		Int("events", events).
		Int("open", len(s.Open)).
		Int("closed", len(s.Closed)).
		Int("unmatched_closes", cr.countDiagnostics(diagnosticUnmatchedClose)).
		Int("unknown_events", cr.countDiagnostics(diagnosticUnknownEvent)).
		Msg("log correlated")

	if !geo {
		return s, nil
	}
	s.Locations = make(map[netip.Addr]*location, len(groups))
	for _, g := range groups {
		loc, err := smr.locator.Locate(ctx, g.Addr)
		if err != nil {
			return nil, fmt.Errorf("error looking up geolocation: %w", err)
		}
		s.Locations[g.Addr] = loc
	}
	return s, nil
}

func (smr *summarizer) Close() error {
	if smr.locator == nil {
		return nil
	}
	return smr.locator.Close()
}
