package ecs

import "time"

type Event struct {
	Action   string         `json:"action,omitempty"`
	Category []string       `json:"category,omitempty"`
	Created  *time.Time     `json:"created,omitempty"`
	Dataset  string         `json:"dataset,omitempty"`
	Duration *time.Duration `json:"duration,omitempty"`
	End      *time.Time     `json:"end,omitempty"`
	Kind     string         `json:"kind,omitempty"`
	Module   string         `json:"module,omitempty"`
	Outcome  string         `json:"outcome,omitempty"`
	Provider string         `json:"provider,omitempty"`
	Start    *time.Time     `json:"start,omitempty"`
	Type     []string       `json:"type,omitempty"`
}
