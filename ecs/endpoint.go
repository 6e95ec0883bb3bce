package ecs

import "net"

type AS struct {
	Number       uint          `json:"number,omitempty"`
	Organization *Organization `json:"organization,omitempty"`
}

type Organization struct {
	Name string `json:"name,omitempty"`
}

type Endpoint struct {
	Address string `json:"address,omitempty"`
	Domain  string `json:"domain,omitempty"`
	IP      net.IP `json:"ip,omitempty"`
	Port    uint16 `json:"port,omitempty"`

	AS  *AS  `json:"as,omitempty"`
	Geo *Geo `json:"geo,omitempty"`
}
