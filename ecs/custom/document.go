package ecsx

import "github.com/telkomindonesia/tarpit-summary/ecs"

// Tarpit carries the per source statistics that have no ECS equivalent.
type Tarpit struct {
	Connections          int     `json:"connections"`
	TotalDurationSeconds float64 `json:"total_duration_seconds"`
}

type Document struct {
	ecs.Document

	Tarpit *Tarpit `json:"_tarpit"`
}
