package main

import (
	"errors"
	"fmt"
	"net/netip"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// errCorrelationIntegrity means an event was attached to a connection whose
// address or descriptor differs from its own. It is always fatal.
var errCorrelationIntegrity = errors.New("correlation integrity violation")

// connection is the correlated lifecycle of one accepted connection.
type connection struct {
	seq    int
	events []connectionEvent
}

func newConnection(seq int, ev connectionEvent) *connection {
	return &connection{seq: seq, events: []connectionEvent{ev}}
}

func (c *connection) addEvent(ev connectionEvent) error {
	first := c.events[0]
	if first.Addr != ev.Addr {
		return fmt.Errorf("%w: event address %s does not match connection address %s", errCorrelationIntegrity, ev.Addr, first.Addr)
	}
	if first.FD != ev.FD {
		return fmt.Errorf("%w: event descriptor %d does not match connection descriptor %d", errCorrelationIntegrity, ev.FD, first.FD)
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *connection) ip() netip.Addr { return c.events[0].Addr }

func (c *connection) fd() int { return c.events[0].FD }

// duration is the duration of the last event; false while still open.
func (c *connection) duration() (float64, bool) {
	return c.events[len(c.events)-1].duration()
}

func (c *connection) start() time.Time { return c.events[0].Time }

func (c *connection) end() time.Time { return c.events[len(c.events)-1].Time }

type diagnosticKind int

const (
	diagnosticUnknownEvent diagnosticKind = iota
	diagnosticUnmatchedClose
)

func (k diagnosticKind) String() string {
	switch k {
	case diagnosticUnknownEvent:
		return "unknown event"
	case diagnosticUnmatchedClose:
		return "unmatched close"
	}
	return "unknown diagnostic"
}

// diagnostic is a non-fatal observation made while correlating. It never
// aborts a run.
type diagnostic struct {
	Kind  diagnosticKind
	Event connectionEvent
}

func (d diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Kind, d.Event)
}

type correlator struct {
	logger zerolog.Logger

	seq         int
	open        map[connKey]*connection
	closed      []*connection
	diagnostics []diagnostic
}

func newCorrelator(logger zerolog.Logger) *correlator {
	return &correlator{
		logger: logger,
		open:   map[connKey]*connection{},
	}
}

// process applies one event. Events of a key must arrive in chronological
// order; nothing is buffered or reordered.
func (cr *correlator) process(ev connectionEvent) (err error) {
	switch k := ev.Kind.(type) {
	case acceptKind:
		if conn, ok := cr.open[ev.key()]; ok {
			return conn.addEvent(ev)
		}
		cr.seq++
		cr.open[ev.key()] = newConnection(cr.seq, ev)

	case closeKind:
		conn, ok := cr.open[ev.key()]
		if !ok {
			cr.diagnose(diagnosticUnmatchedClose, ev)
			return nil
		}
		if err = conn.addEvent(ev); err != nil {
			return err
		}
		cr.closed = append(cr.closed, conn)
		delete(cr.open, ev.key())

	case unknownKind:
		cr.diagnose(diagnosticUnknownEvent, ev)

	default:
		return fmt.Errorf("unsupported event kind %T", k)
	}
	return nil
}

func (cr *correlator) diagnose(kind diagnosticKind, ev connectionEvent) {
	d := diagnostic{Kind: kind, Event: ev}
	cr.diagnostics = append(cr.diagnostics, d)

	switch kind {
	case diagnosticUnknownEvent:
		cr.logger.Warn().Str("keyword", ev.Kind.String()).Stringer("diagnostic", d).Msg("unmatched connection type")
	case diagnosticUnmatchedClose:
		cr.logger.Warn().Stringer("diagnostic", d).Msg("closing leftover connection")
	}
}

// openConnections lists the connections still active, in accept order.
func (cr *correlator) openConnections() []*connection {
	conns := make([]*connection, 0, len(cr.open))
	for _, c := range cr.open {
		conns = append(conns, c)
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].seq < conns[j].seq })
	return conns
}

func (cr *correlator) closedConnections() []*connection {
	return cr.closed
}

func (cr *correlator) countDiagnostics(kind diagnosticKind) (n int) {
	for _, d := range cr.diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return
}
