package ecs

import (
	"net"
	"time"
)

type ThreatIndicator struct {
	Description string     `json:"description,omitempty"`
	FirstSeen   *time.Time `json:"first_seen,omitempty"`
	IP          net.IP     `json:"ip,omitempty"`
	LastSeen    *time.Time `json:"last_seen,omitempty"`
	Provider    string     `json:"provider,omitempty"`
	Sightings   int        `json:"sightings,omitempty"`
	Type        string     `json:"type,omitempty"`

	Geo *Geo `json:"geo,omitempty"`
}

type Threat struct {
	Indicator *ThreatIndicator `json:"indicator,omitempty"`
}
