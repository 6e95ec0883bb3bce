package main

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/oschwald/geoip2-golang"
	"go.uber.org/multierr"
)

var _ locator = &geoipLocator{}

// geoipLocator resolves addresses against local MaxMind databases. The ASN
// database is optional and only feeds the organization field.
type geoipLocator struct {
	cityDB *geoip2.Reader
	asnDB  *geoip2.Reader
}

func newGeoIPLocator(cityPath, asnPath string) (gl *geoipLocator, err error) {
	gl = &geoipLocator{}
	if gl.cityDB, err = geoip2.Open(cityPath); err != nil {
		return nil, fmt.Errorf("error opening geoip city database %s: %w", cityPath, err)
	}
	if asnPath == "" {
		return gl, nil
	}
	if gl.asnDB, err = geoip2.Open(asnPath); err != nil {
		gl.cityDB.Close()
		return nil, fmt.Errorf("error opening geoip asn database %s: %w", asnPath, err)
	}
	return gl, nil
}

func (gl *geoipLocator) Locate(ctx context.Context, addr netip.Addr) (loc *location, err error) {
	if gl.cityDB == nil {
		return nil, fmt.Errorf("no geodatabase instantiated")
	}

	ip := normalizeAddr(addr).AsSlice()
	record, err := gl.cityDB.City(ip)
	if err != nil {
		return nil, fmt.Errorf("error getting city information for %s: %w", addr, err)
	}

	loc = &location{
		City:    record.City.Names["en"],
		Country: record.Country.IsoCode,
	}
	if len(record.Subdivisions) > 0 {
		loc.Region = record.Subdivisions[0].Names["en"]
	}
	if record.Location.Latitude != 0 || record.Location.Longitude != 0 {
		lat, lon := record.Location.Latitude, record.Location.Longitude
		loc.Latitude, loc.Longitude = &lat, &lon
	}

	if gl.asnDB == nil {
		return loc, nil
	}
	asn, err := gl.asnDB.ASN(ip)
	if err != nil {
		return nil, fmt.Errorf("error getting asn information for %s: %w", addr, err)
	}
	if asn.AutonomousSystemNumber != 0 {
		loc.Org = fmt.Sprintf("AS%d %s", asn.AutonomousSystemNumber, asn.AutonomousSystemOrganization)
	}
	return loc, nil
}

func (gl *geoipLocator) Close() (err error) {
	if gl.cityDB != nil {
		err = multierr.Append(err, gl.cityDB.Close())
	}
	if gl.asnDB != nil {
		err = multierr.Append(err, gl.asnDB.Close())
	}
	return
}
