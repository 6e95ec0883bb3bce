package main

import (
	"errors"
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Fractional seconds are accepted on parse even though the layout omits them.
const eventTimeLayout = "2006-01-02T15:04:05Z"

const (
	keywordAccept = "ACCEPT"
	keywordClose  = "CLOSE"

	hostFieldPrefix = "host="

	// maxDurationSeconds keeps per address totals well inside int range.
	maxDurationSeconds = math.MaxInt32
)

// eventKind is one of acceptKind, closeKind or unknownKind.
type eventKind interface {
	fmt.Stringer
	isEventKind()
}

type acceptKind struct{}

type closeKind struct {
	// Duration is the elapsed time in seconds as logged by the tarpit.
	Duration float64
}

type unknownKind struct {
	Keyword string
}

func (acceptKind) isEventKind()  {}
func (closeKind) isEventKind()   {}
func (unknownKind) isEventKind() {}

func (acceptKind) String() string    { return keywordAccept }
func (closeKind) String() string     { return keywordClose }
func (k unknownKind) String() string { return k.Keyword }

// connKey identifies at most one open connection at a time.
type connKey struct {
	Addr netip.Addr
	FD   int
}

func (k connKey) String() string {
	return fmt.Sprintf("%s fd=%d", k.Addr, k.FD)
}

type connectionEvent struct {
	Time time.Time
	Kind eventKind
	Addr netip.Addr
	FD   int
}

func (ev connectionEvent) key() connKey {
	return connKey{Addr: ev.Addr, FD: ev.FD}
}

// duration reports the logged duration, which only close events carry.
func (ev connectionEvent) duration() (float64, bool) {
	if k, ok := ev.Kind.(closeKind); ok {
		return k.Duration, true
	}
	return 0, false
}

func (ev connectionEvent) String() string {
	s := fmt.Sprintf("%s %s host=%s fd=%d", ev.Time.Format(time.RFC3339Nano), ev.Kind, ev.Addr, ev.FD)
	if d, ok := ev.duration(); ok {
		s += " duration=" + strconv.FormatFloat(d, 'f', -1, 64)
	}
	return s
}

var errMissingValue = errors.New("missing '=' separated value")

// fieldError is returned for a recognized line whose field values cannot be
// parsed. It is always fatal: it means the log format has drifted.
type fieldError struct {
	Field string
	Value string
	Line  string
	Err   error
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("invalid %s %q in line %q: %v", e.Field, e.Value, clipLine(e.Line), e.Err)
}

func (e *fieldError) Unwrap() error { return e.Err }

const maxQuotedLine = 160

// clipLine shortens a line quoted in an error message, counting runes.
func clipLine(line string) string {
	if utf8.RuneCountInString(line) <= maxQuotedLine {
		return line
	}
	return string([]rune(line)[:maxQuotedLine]) + "..."
}

// parseConnectionEvent parses one tarpit log line. Lines that are not
// connection events yield a nil event and a nil error.
func parseConnectionEvent(line string) (ev *connectionEvent, err error) {
	fields := strings.Fields(line)
	if len(fields) < 6 || !strings.HasPrefix(fields[2], hostFieldPrefix) {
		return nil, nil
	}

	ev = &connectionEvent{}
	host := strings.TrimPrefix(fields[2], hostFieldPrefix)
	if ev.Addr, err = netip.ParseAddr(host); err != nil {
		return nil, &fieldError{Field: "address", Value: host, Line: line, Err: err}
	}

	if ev.FD, err = parseDescriptor(fields[4]); err != nil {
		return nil, &fieldError{Field: "descriptor", Value: fields[4], Line: line, Err: err}
	}

	switch fields[1] {
	case keywordAccept:
		ev.Kind = acceptKind{}
	case keywordClose:
		d, err := parseDuration(fields[5])
		if err != nil {
			return nil, &fieldError{Field: "duration", Value: fields[5], Line: line, Err: err}
		}
		ev.Kind = closeKind{Duration: d}
	default:
		ev.Kind = unknownKind{Keyword: fields[1]}
	}

	if ev.Time, err = time.ParseInLocation(eventTimeLayout, fields[0], time.UTC); err != nil {
		return nil, &fieldError{Field: "timestamp", Value: fields[0], Line: line, Err: err}
	}
	return ev, nil
}

func fieldValue(field string) (string, error) {
	_, v, ok := strings.Cut(field, "=")
	if !ok {
		return "", errMissingValue
	}
	return v, nil
}

func parseDescriptor(field string) (int, error) {
	v, err := fieldValue(field)
	if err != nil {
		return 0, err
	}
	fd, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if fd < 0 {
		return 0, fmt.Errorf("descriptor must not be negative")
	}
	return fd, nil
}

func parseDuration(field string) (float64, error) {
	v, err := fieldValue(field)
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0, fmt.Errorf("duration must be a finite non-negative number")
	}
	if d > maxDurationSeconds {
		return 0, fmt.Errorf("duration exceeds %d seconds", maxDurationSeconds)
	}
	return d, nil
}
