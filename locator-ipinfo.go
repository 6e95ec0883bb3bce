package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
)

const defaultIPInfoURL = "https://ipinfo.io"

var _ locator = &ipinfoLocator{}

// ipinfoLocator queries the ipinfo.io API, one request per address.
type ipinfoLocator struct {
	client  *http.Client
	baseURL string
	token   string
}

func newIPInfoLocator(baseURL, token string) *ipinfoLocator {
	if baseURL == "" {
		baseURL = defaultIPInfoURL
	}
	return &ipinfoLocator{
		client:  http.DefaultClient,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
	}
}

type ipinfoResponse struct {
	Hostname string `json:"hostname"`
	Org      string `json:"org"`
	City     string `json:"city"`
	Region   string `json:"region"`
	Country  string `json:"country"`
	Loc      string `json:"loc"`
}

func (il *ipinfoLocator) Locate(ctx context.Context, addr netip.Addr) (*location, error) {
	addr = normalizeAddr(addr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, il.baseURL+"/"+addr.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating ipinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if il.token != "" {
		req.Header.Set("Authorization", "Bearer "+il.token)
	}

	res, err := il.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error querying ipinfo for %s: %w", addr, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("ipinfo returned %s for %s: %s", res.Status, addr, strings.TrimSpace(string(b)))
	}

	var body ipinfoResponse
	if err = json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("error decoding ipinfo response for %s: %w", addr, err)
	}

	loc := &location{
		Hostname: body.Hostname,
		Org:      body.Org,
		City:     body.City,
		Region:   body.Region,
		Country:  body.Country,
	}
	if lat, lon, ok := strings.Cut(body.Loc, ","); ok {
		la, errLat := strconv.ParseFloat(lat, 64)
		lo, errLon := strconv.ParseFloat(lon, 64)
		if errLat == nil && errLon == nil {
			loc.Latitude, loc.Longitude = &la, &lo
		}
	}
	return loc, nil
}

func (il *ipinfoLocator) Close() error { return nil }
