package main

import (
	"fmt"
	"io"
	"net/netip"
	"strings"
	"time"

	"github.com/telkomindonesia/tarpit-summary/ecs"
	ecsx "github.com/telkomindonesia/tarpit-summary/ecs/custom"
)

// summary is the outcome of correlating and aggregating one window.
type summary struct {
	Source      string
	Window      window
	Open        []*connection
	Closed      []*connection
	Groups      []*connectionGroup
	Diagnostics []diagnostic

	// Locations is nil unless geolocation was requested.
	Locations map[netip.Addr]*location
}

func (s *summary) location(addr netip.Addr) *location {
	if s.Locations == nil {
		return nil
	}
	return s.Locations[addr]
}

func humanReadableSeconds(seconds int) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%d second(s)", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%d minute(s), %d second(s)", seconds/60, seconds%60)
	}
	rem := seconds % 3600
	return fmt.Sprintf("%d hour(s), %d minute(s), %d second(s)", seconds/3600, rem/60, rem%60)
}

// groupLine renders one group as
// "<address>[ <hostname>][ <organization>][ (<region>, <country>)]: ...".
func groupLine(g *connectionGroup, loc *location) string {
	var b strings.Builder
	b.WriteString(normalizeAddr(g.Addr).String())
	if loc != nil {
		if loc.Hostname != "" {
			b.WriteString(" " + loc.Hostname)
		}
		if loc.Org != "" {
			b.WriteString(" " + loc.Org)
		}
		switch {
		case loc.Region != "" && loc.Country != "":
			fmt.Fprintf(&b, " (%s, %s)", loc.Region, loc.Country)
		case loc.Region != "":
			fmt.Fprintf(&b, " (%s)", loc.Region)
		case loc.Country != "":
			fmt.Fprintf(&b, " (%s)", loc.Country)
		}
	}
	fmt.Fprintf(&b, ": %d connections, spent %s", g.count(), humanReadableSeconds(int(g.totalDuration())))
	return b.String()
}

func (s *summary) writeText(w io.Writer) error {
	var b strings.Builder
	if len(s.Open) > 0 {
		b.WriteString("\nCurrently open connections:\n")
		for _, c := range s.Open {
			fmt.Fprintf(&b, "\t%s fd=%d since %s\n", normalizeAddr(c.ip()), c.fd(), c.start().Format(time.RFC3339))
		}
	}

	fmt.Fprintf(&b, "\nClosed connections: %d\n", len(s.Closed))
	for _, g := range s.Groups {
		b.WriteString(groupLine(g, s.location(g.Addr)))
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (s *summary) toECS() (docs []*ecsx.Document) {
	docs = make([]*ecsx.Document, 0, len(s.Groups))
	for _, g := range s.Groups {
		addr := normalizeAddr(g.Addr)
		first, last := g.firstSeen(), g.lastSeen()
		total := time.Duration(g.totalDuration() * float64(time.Second))

		doc := &ecsx.Document{
			Document: ecs.Document{
				Base: ecs.Base{
					Timestamp: s.Window.End,
					Message:   groupLine(g, s.location(g.Addr)),
				},
				ECS: ecs.ECS{
					Version: ecs.Version,
				},
				Event: &ecs.Event{
					Kind:     "metric",
					Category: []string{"network", "intrusion_detection"},
					Type:     []string{"connection", "info"},
					Dataset:  "tarpit.summary",
					Start:    &s.Window.Start,
					End:      &s.Window.End,
					Duration: &total,
				},
				Source: &ecs.Endpoint{
					Address: addr.String(),
					IP:      addr.AsSlice(),
				},
				Threat: &ecs.Threat{
					Indicator: &ecs.ThreatIndicator{
						Type:      addrIndicatorType(addr),
						IP:        addr.AsSlice(),
						FirstSeen: &first,
						LastSeen:  &last,
						Sightings: g.count(),
						Provider:  s.Source,
					},
				},
			},
			Tarpit: &ecsx.Tarpit{
				Connections:          g.count(),
				TotalDurationSeconds: g.totalDuration(),
			},
		}

		if loc := s.location(g.Addr); loc != nil {
			doc.Source.Domain = loc.Hostname
			if loc.Org != "" {
				doc.Source.AS = &ecs.AS{Organization: &ecs.Organization{Name: loc.Org}}
			}
			doc.Source.Geo = locationToECS(loc)
			doc.Threat.Indicator.Geo = doc.Source.Geo
		}
		docs = append(docs, doc)
	}
	return
}

func addrIndicatorType(addr netip.Addr) string {
	if addr.Is4() {
		return "ipv4-addr"
	}
	return "ipv6-addr"
}

func locationToECS(loc *location) *ecs.Geo {
	geo := &ecs.Geo{
		CityName:       loc.City,
		CountryISOCode: loc.Country,
		RegionName:     loc.Region,
	}
	if loc.Latitude != nil && loc.Longitude != nil {
		geo.Location = &ecs.GeoPoint{Lat: *loc.Latitude, Lon: *loc.Longitude}
	}
	return geo
}

type openConnectionDoc struct {
	IP    string    `json:"ip"`
	FD    int       `json:"fd"`
	Since time.Time `json:"since"`
}

type summaryResponse struct {
	Source            string              `json:"source"`
	Start             time.Time           `json:"start"`
	End               time.Time           `json:"end"`
	OpenConnections   []openConnectionDoc `json:"open_connections"`
	ClosedConnections int                 `json:"closed_connections"`
	UnmatchedCloses   int                 `json:"unmatched_closes"`
	UnknownEvents     int                 `json:"unknown_events"`
	Groups            []*ecsx.Document    `json:"groups"`
}

func (s *summary) toResponse() *summaryResponse {
	res := &summaryResponse{
		Source:            s.Source,
		Start:             s.Window.Start,
		End:               s.Window.End,
		OpenConnections:   make([]openConnectionDoc, 0, len(s.Open)),
		ClosedConnections: len(s.Closed),
		Groups:            s.toECS(),
	}
	for _, c := range s.Open {
		res.OpenConnections = append(res.OpenConnections, openConnectionDoc{
			IP:    normalizeAddr(c.ip()).String(),
			FD:    c.fd(),
			Since: c.start(),
		})
	}
	for _, d := range s.Diagnostics {
		switch d.Kind {
		case diagnosticUnmatchedClose:
			res.UnmatchedCloses++
		case diagnosticUnknownEvent:
			res.UnknownEvents++
		}
	}
	return res
}
