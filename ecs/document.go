package ecs

type Document struct {
	Base

	ECS ECS `json:"ecs"`

	Event  *Event    `json:"event,omitempty"`
	Source *Endpoint `json:"source,omitempty"`
	Threat *Threat   `json:"threat,omitempty"`
}
