package main

import (
	"bytes"
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

func acceptEv(addr string, fd int, at int) connectionEvent {
	return connectionEvent{
		Time: testEpoch.Add(time.Duration(at) * time.Second),
		Kind: acceptKind{},
		Addr: netip.MustParseAddr(addr),
		FD:   fd,
	}
}

func closeEv(addr string, fd int, at int, d float64) connectionEvent {
	return connectionEvent{
		Time: testEpoch.Add(time.Duration(at) * time.Second),
		Kind: closeKind{Duration: d},
		Addr: netip.MustParseAddr(addr),
		FD:   fd,
	}
}

func correlate(t *testing.T, events ...connectionEvent) *correlator {
	cr := newCorrelator(zerolog.Nop())
	for i, ev := range events {
		require.NoErrorf(t, cr.process(ev), "should not return error. index %d", i)
	}
	return cr
}

func TestCorrelatorAcceptThenClose(t *testing.T) {
	cr := correlate(t,
		acceptEv("1.2.3.4", 5, 0),
		closeEv("1.2.3.4", 5, 5, 5.0),
	)

	require.Len(t, cr.closedConnections(), 1, "should produce exactly one closed connection")
	conn := cr.closedConnections()[0]
	assert.Equal(t, netip.MustParseAddr("1.2.3.4"), conn.ip())
	d, ok := conn.duration()
	assert.True(t, ok)
	assert.Equal(t, 5.0, d, "should take the duration of the close event")
	assert.Empty(t, cr.openConnections(), "should retire the key on close")
	assert.Empty(t, cr.diagnostics)
}

func TestCorrelatorUnmatchedClose(t *testing.T) {
	cr := correlate(t,
		closeEv("1.2.3.4", 5, 0, 3),
		acceptEv("5.6.7.8", 5, 1),
	)

	assert.Empty(t, cr.closedConnections(), "should not create a spurious connection")
	require.Len(t, cr.diagnostics, 1, "should report exactly one diagnostic")
	assert.Equal(t, diagnosticUnmatchedClose, cr.diagnostics[0].Kind)
	assert.Equal(t, netip.MustParseAddr("1.2.3.4"), cr.diagnostics[0].Event.Addr)
	assert.Len(t, cr.openConnections(), 1)
}

func TestCorrelatorCloseBeforeAcceptIsUnmatched(t *testing.T) {
	cr := correlate(t,
		closeEv("1.2.3.4", 5, 0, 3),
		acceptEv("1.2.3.4", 5, 1),
	)

	assert.Equal(t, 1, cr.countDiagnostics(diagnosticUnmatchedClose))
	assert.Empty(t, cr.closedConnections())
	require.Len(t, cr.openConnections(), 1, "the late accept stays open")
}

func TestCorrelatorLeftoverOpen(t *testing.T) {
	cr := correlate(t,
		acceptEv("1.2.3.4", 5, 0),
		acceptEv("9.9.9.9", 6, 1),
		closeEv("1.2.3.4", 5, 2, 2),
	)

	open := cr.openConnections()
	require.Len(t, open, 1)
	assert.Equal(t, connKey{Addr: netip.MustParseAddr("9.9.9.9"), FD: 6}, open[0].events[0].key())
	_, ok := open[0].duration()
	assert.False(t, ok, "open connections have no duration")

	groups, err := aggregate(cr.closedConnections())
	require.NoError(t, err)
	for _, g := range groups {
		assert.NotEqual(t, netip.MustParseAddr("9.9.9.9"), g.Addr, "open connection must not be aggregated")
	}
}

func TestCorrelatorDescriptorReuse(t *testing.T) {
	cr := correlate(t,
		acceptEv("1.2.3.4", 5, 0),
		closeEv("1.2.3.4", 5, 10, 10),
		acceptEv("1.2.3.4", 5, 20),
		closeEv("1.2.3.4", 5, 23, 3),
	)

	closed := cr.closedConnections()
	require.Len(t, closed, 2, "a reused descriptor should start a fresh connection")
	assert.Len(t, closed[0].events, 2)
	assert.Len(t, closed[1].events, 2)
	d, _ := closed[1].duration()
	assert.Equal(t, 3.0, d)
}

func TestCorrelatorRepeatedAccept(t *testing.T) {
	cr := correlate(t,
		acceptEv("1.2.3.4", 5, 0),
		acceptEv("1.2.3.4", 5, 1),
		closeEv("1.2.3.4", 5, 4, 4),
	)

	closed := cr.closedConnections()
	require.Len(t, closed, 1, "repeated accepts are observations of the same connection")
	assert.Len(t, closed[0].events, 3)
}

func TestCorrelatorUnknownEvent(t *testing.T) {
	cr := correlate(t,
		acceptEv("1.2.3.4", 5, 0),
		connectionEvent{Time: testEpoch, Kind: unknownKind{Keyword: "RESET"}, Addr: netip.MustParseAddr("1.2.3.4"), FD: 5},
		closeEv("1.2.3.4", 5, 4, 4),
	)

	assert.Equal(t, 1, cr.countDiagnostics(diagnosticUnknownEvent))
	require.Len(t, cr.closedConnections(), 1)
	assert.Len(t, cr.closedConnections()[0].events, 2, "unknown events do not join connections")
}

func TestConnectionIntegrity(t *testing.T) {
	conn := newConnection(1, acceptEv("1.2.3.4", 5, 0))

	err := conn.addEvent(closeEv("1.2.3.5", 5, 1, 1))
	assert.True(t, errors.Is(err, errCorrelationIntegrity), "address mismatch should be an integrity error")

	err = conn.addEvent(closeEv("1.2.3.4", 6, 1, 1))
	assert.True(t, errors.Is(err, errCorrelationIntegrity), "descriptor mismatch should be an integrity error")

	var ferr *fieldError
	assert.False(t, errors.As(err, &ferr), "should not be confused with a field error")
	assert.Len(t, conn.events, 1, "rejected events are not appended")
}

func TestCorrelatorOpenOrder(t *testing.T) {
	cr := correlate(t,
		acceptEv("3.3.3.3", 1, 0),
		acceptEv("1.1.1.1", 2, 1),
		acceptEv("2.2.2.2", 3, 2),
	)

	open := cr.openConnections()
	require.Len(t, open, 3)
	assert.Equal(t, "3.3.3.3", open[0].ip().String())
	assert.Equal(t, "1.1.1.1", open[1].ip().String())
	assert.Equal(t, "2.2.2.2", open[2].ip().String())
}

func TestCorrelatorLogsDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	cr := newCorrelator(zerolog.New(&buf))
	require.NoError(t, cr.process(closeEv("1.2.3.4", 5, 0, 3)))

	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"diagnostic":"unmatched close: 2025-08-01T10:00:00Z CLOSE host=1.2.3.4 fd=5 duration=3"`)
}
