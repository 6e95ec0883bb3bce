package ecs

type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}
type Geo struct {
	CityName       string    `json:"city_name,omitempty"`
	CountryISOCode string    `json:"country_iso_code,omitempty"`
	Location       *GeoPoint `json:"location,omitempty"`
	RegionName     string    `json:"region_name,omitempty"`
}
