package ecs

import "time"

const Version = "8.11.0"

type ECS struct {
	Version string `json:"version,omitempty"`
}

type Base struct {
	Timestamp time.Time         `json:"@timestamp,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
	Message   string            `json:"message,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
}
