package main

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

const configEnvPrefix = "TARPIT_SUMMARY_"

type configLog struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"console"`
}

type configJournal struct {
	Command string `env:"COMMAND" envDefault:"journalctl"`
	Unit    string `env:"UNIT" envDefault:"endlessh.service"`
	User    bool   `env:"USER"`
}

type configGeoIP struct {
	CityDB      string `env:"CITY_DB"`
	ASNDB       string `env:"ASN_DB"`
	IPInfoURL   string `env:"IPINFO_URL" envDefault:"https://ipinfo.io"`
	IPInfoToken string `env:"IPINFO_TOKEN"`
}

type configS3Credential struct {
	KeyID     string `env:"ACCESS_KEY_ID"`
	SecretKey string `env:"SECRET_ACCESS_KEY"`
}
type configS3 struct {
	Endpoint       string             `env:"ENDPOINT"`
	Region         string             `env:"REGION"`
	Bucket         string             `env:"BUCKET"`
	ForcePathStyle bool               `env:"FORCE_PATH_STYLE"`
	Credentials    configS3Credential `envPrefix:"CREDENTIAL_"`
}

type configServer struct {
	Address string `env:"ADDRESS" envDefault:":8080"`
	LogDir  string `env:"LOG_DIR"`
}

type config struct {
	Log     configLog     `envPrefix:"LOG_"`
	Journal configJournal `envPrefix:"JOURNAL_"`
	GeoIP   configGeoIP   `envPrefix:"GEOIP_"`
	S3      configS3      `envPrefix:"S3_"`
	Server  configServer  `envPrefix:"SERVER_"`
}

func newConfig() (*config, error) {
	return parseConfig(env.Options{Prefix: configEnvPrefix})
}

func parseConfig(opts env.Options) (*config, error) {
	cfg := config{}
	if err := env.Parse(&cfg, opts); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	return &cfg, nil
}

// summarizerOptions picks the geolocation provider: the local GeoIP database
// when configured, ipinfo otherwise.
func (cfg *config) summarizerOptions() []summarizerFunc {
	if cfg.GeoIP.CityDB != "" {
		return []summarizerFunc{summarizerWithGeoIP(cfg.GeoIP.CityDB, cfg.GeoIP.ASNDB)}
	}
	return []summarizerFunc{summarizerWithIPInfo(cfg.GeoIP.IPInfoURL, cfg.GeoIP.IPInfoToken)}
}
