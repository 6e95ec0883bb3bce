package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPInfoLocator(t *testing.T) {
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, path = r.Header.Get("Authorization"), r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"ip": "1.2.3.4",
			"hostname": "scanner.example.net",
			"city": "Munich",
			"region": "Bavaria",
			"country": "DE",
			"loc": "48.1374,11.5755",
			"org": "AS64500 Example"
		}`)
	}))
	defer srv.Close()

	l := newIPInfoLocator(srv.URL+"/", "secret")
	loc, err := l.Locate(context.Background(), netip.MustParseAddr("::ffff:1.2.3.4"))
	require.NoError(t, err)

	assert.Equal(t, "/1.2.3.4", path, "should query the unmapped address")
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "scanner.example.net", loc.Hostname)
	assert.Equal(t, "AS64500 Example", loc.Org)
	assert.Equal(t, "Munich", loc.City)
	assert.Equal(t, "Bavaria", loc.Region)
	assert.Equal(t, "DE", loc.Country)
	require.NotNil(t, loc.Latitude)
	assert.Equal(t, 48.1374, *loc.Latitude)
	assert.Equal(t, 11.5755, *loc.Longitude)
	assert.NoError(t, l.Close())
}

func TestIPInfoLocatorPartialRecord(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"ip": "10.0.0.1", "bogon": true}`)
	}))
	defer srv.Close()

	loc, err := newIPInfoLocator(srv.URL, "").Locate(context.Background(), netip.MustParseAddr("10.0.0.1"))
	require.NoError(t, err)
	assert.Empty(t, auth, "should not send a token when none is configured")
	assert.Equal(t, &location{}, loc)
}

func TestIPInfoLocatorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newIPInfoLocator(srv.URL, "").Locate(context.Background(), netip.MustParseAddr("1.2.3.4"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

type countingLocator struct {
	calls atomic.Int32
	fail  bool
}

func (cl *countingLocator) Locate(ctx context.Context, addr netip.Addr) (*location, error) {
	cl.calls.Add(1)
	if cl.fail {
		return nil, fmt.Errorf("lookup failed")
	}
	return &location{Country: "DE", Hostname: addr.String()}, nil
}

func (cl *countingLocator) Close() error { return nil }

func TestCachedLocator(t *testing.T) {
	backend := &countingLocator{}
	l := newCachedLocator(backend)
	assert.Same(t, l, newCachedLocator(l), "should not wrap twice")

	for _, a := range []string{"1.2.3.4", "::ffff:1.2.3.4", "1.2.3.4", "5.6.7.8"} {
		loc, err := l.Locate(context.Background(), netip.MustParseAddr(a))
		require.NoError(t, err)
		assert.Equal(t, "DE", loc.Country)
	}
	assert.Equal(t, int32(2), backend.calls.Load(), "should look up each normalized address once")
}

func TestCachedLocatorDoesNotCacheFailures(t *testing.T) {
	backend := &countingLocator{fail: true}
	l := newCachedLocator(backend)

	for i := 0; i < 2; i++ {
		_, err := l.Locate(context.Background(), netip.MustParseAddr("1.2.3.4"))
		assert.Error(t, err)
	}
	assert.Equal(t, int32(2), backend.calls.Load())
}

func TestGeoIPLocatorMissingDatabase(t *testing.T) {
	_, err := newGeoIPLocator(filepath.Join(t.TempDir(), "GeoLite2-City.mmdb"), "")
	assert.Error(t, err)

	_, err = (&geoipLocator{}).Locate(context.Background(), netip.MustParseAddr("1.2.3.4"))
	assert.Error(t, err, "should refuse lookups without a database")
}
