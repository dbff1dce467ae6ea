package config

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config models mapcheck.yml.
type Config struct {
	SongsDir  string `yaml:"songs_dir"`
	CachePath string `yaml:"cache_path"`
	Workers   int    `yaml:"workers"`
	Rating    struct {
		Combiner string  `yaml:"combiner"`
		Power    float64 `yaml:"power"`
	} `yaml:"rating"`
	API struct {
		BaseURL string `yaml:"base_url"`
		// Key is a legacy API v1 key, used for star rating lookups.
		Key string `yaml:"key"`
		// Session is the osu_session cookie, needed for downloads.
		Session string `yaml:"session"`
		// ClientID and ClientSecret switch lookups to API v2.
		ClientID     int    `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		RateLimit    int    `yaml:"rate_limit"`
	} `yaml:"api"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

// FileName is looked up in the working directory when no path is given.
const FileName = "mapcheck.yml"

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.SongsDir == "" {
		return errors.New("config.songs_dir is required")
	}
	if c.Workers < 1 {
		return errors.Errorf("config.workers must be at least 1, got %d", c.Workers)
	}
	switch c.Rating.Combiner {
	case "classic":
	case "powavg":
		if c.Rating.Power <= 0 {
			return errors.New("config.rating.power must be positive for powavg")
		}
	default:
		return errors.Errorf("config.rating.combiner must be 'classic' or 'powavg', got %q", c.Rating.Combiner)
	}
	if c.API.BaseURL == "" {
		return errors.New("config.api.base_url is required")
	}
	if (c.API.ClientID == 0) != (c.API.ClientSecret == "") {
		return errors.New("config.api.client_id and config.api.client_secret must be set together")
	}
	if c.API.RateLimit < 1 {
		return errors.Errorf("config.api.rate_limit must be at least 1 per minute, got %d", c.API.RateLimit)
	}
	if c.Server.Addr == "" {
		return errors.New("config.server.addr is required")
	}
	return nil
}

// RequestInterval is the spacing between API requests implied by RateLimit.
func (c *Config) RequestInterval() time.Duration {
	return time.Minute / time.Duration(max(c.API.RateLimit, 1))
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes. Keys missing
// from data keep their defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := FromYAML(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return cfg, nil
}

// LoadOptional reads path, or FileName in dir when path is empty. A missing
// default file yields Default.
func LoadOptional(dir, path string) (*Config, error) {
	if path != "" {
		return FromFile(path)
	}
	cfg, err := FromFile(filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

const defaultTemplate = `songs_dir: ./songs
cache_path: ./mapcheck.db
workers: 4

rating:
  combiner: classic
  power: 2

api:
  base_url: https://osu.ppy.sh
  rate_limit: 30

server:
  addr: 127.0.0.1:8080
`
