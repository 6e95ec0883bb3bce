package main

import (
	"context"
	"net/netip"
	"sync"
)

// location is the geolocation record of one address. Empty fields are
// unknown and are left out of reports.
type location struct {
	Hostname string `json:"hostname,omitempty"`
	Org      string `json:"org,omitempty"`
	City     string `json:"city,omitempty"`
	Region   string `json:"region,omitempty"`
	Country  string `json:"country,omitempty"`

	Latitude  *float64 `json:"-"`
	Longitude *float64 `json:"-"`
}

type locator interface {
	Locate(ctx context.Context, addr netip.Addr) (*location, error)
	Close() error
}

// normalizeAddr turns an IPv4-mapped IPv6 address into plain IPv4.
func normalizeAddr(addr netip.Addr) netip.Addr {
	return addr.Unmap()
}

var _ locator = &cachedLocator{}

// cachedLocator remembers every successful lookup. Failures are not cached.
type cachedLocator struct {
	locator

	mu    sync.Mutex
	cache map[netip.Addr]*location
}

func newCachedLocator(l locator) *cachedLocator {
	if c, ok := l.(*cachedLocator); ok {
		return c
	}
	return &cachedLocator{locator: l, cache: map[netip.Addr]*location{}}
}

func (cl *cachedLocator) Locate(ctx context.Context, addr netip.Addr) (loc *location, err error) {
	addr = normalizeAddr(addr)

	cl.mu.Lock()
	loc, ok := cl.cache[addr]
	cl.mu.Unlock()
	if ok {
		return loc, nil
	}

	if loc, err = cl.locator.Locate(ctx, addr); err != nil {
		return nil, err
	}

	cl.mu.Lock()
	cl.cache[addr] = loc
	cl.mu.Unlock()
	return loc, nil
}
