package main

import (
	"fmt"
	"net/netip"
	"sort"
	"time"
)

// connectionGroup holds all closed connections sharing one source address.
type connectionGroup struct {
	Addr        netip.Addr
	Connections []*connection
}

func (g *connectionGroup) count() int { return len(g.Connections) }

// totalDuration sums the duration of every member in seconds. Members are
// closed connections, so each one carries a duration.
func (g *connectionGroup) totalDuration() (total float64) {
	for _, c := range g.Connections {
		d, _ := c.duration()
		total += d
	}
	return
}

func (g *connectionGroup) firstSeen() (t time.Time) {
	for _, c := range g.Connections {
		if t.IsZero() || c.start().Before(t) {
			t = c.start()
		}
	}
	return
}

func (g *connectionGroup) lastSeen() (t time.Time) {
	for _, c := range g.Connections {
		if c.end().After(t) {
			t = c.end()
		}
	}
	return
}

// aggregate groups closed connections by source address. Groups are ordered
// by descending connection count; ties keep the order in which each address
// was first encountered.
func aggregate(closed []*connection) ([]*connectionGroup, error) {
	index := map[netip.Addr]*connectionGroup{}
	groups := []*connectionGroup{}
	for _, c := range closed {
		if _, ok := c.duration(); !ok {
			return nil, fmt.Errorf("%w: connection %s fd=%d reached aggregation without a duration", errCorrelationIntegrity, c.ip(), c.fd())
		}

		g, ok := index[c.ip()]
		if !ok {
			g = &connectionGroup{Addr: c.ip()}
			index[c.ip()] = g
			groups = append(groups, g)
		}
		g.Connections = append(g.Connections, c)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].count() > groups[j].count()
	})
	return groups, nil
}
