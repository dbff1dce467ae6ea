package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Workers != 4 || cfg.Rating.Combiner != "classic" || cfg.API.RateLimit != 30 {
		t.Fatalf("default = %+v", cfg)
	}
	if cfg.RequestInterval() != 2*time.Second {
		t.Fatalf("interval = %v", cfg.RequestInterval())
	}
}

func TestFromYAMLKeepsDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte("workers: 8\nrating:\n  combiner: powavg\n  power: 3\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Workers != 8 || cfg.Rating.Power != 3 || cfg.SongsDir != "./songs" {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct{ doc, want string }{
		{"workers: 0\n", "workers"},
		{"rating:\n  combiner: median\n", "combiner"},
		{"rating:\n  combiner: powavg\n  power: 0\n", "power"},
		{"songs_dir: \"\"\n", "songs_dir"},
		{"api:\n  rate_limit: 0\n", "rate_limit"},
	}
	for _, c := range cases {
		_, err := FromYAML([]byte(c.doc))
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Fatalf("%q: err = %v, want mention of %s", c.doc, err, c.want)
		}
	}
	if _, err := FromYAML([]byte("workers: [")); err == nil {
		t.Fatalf("broken yaml accepted")
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir, "")
	if err != nil || cfg.Workers != 4 {
		t.Fatalf("missing file: %+v, %v", cfg, err)
	}

	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("workers: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadOptional(dir, "")
	if err != nil || cfg.Workers != 2 {
		t.Fatalf("default file: %+v, %v", cfg, err)
	}

	if _, err := LoadOptional(dir, filepath.Join(dir, "nope.yml")); err == nil {
		t.Fatalf("explicit missing file accepted")
	}
}

func TestClientCredentialsTogether(t *testing.T) {
	if _, err := FromYAML([]byte("api:\n  client_id: 12\n")); err == nil || !strings.Contains(err.Error(), "client_secret") {
		t.Fatalf("err = %v", err)
	}
	cfg, err := FromYAML([]byte("api:\n  client_id: 12\n  client_secret: s\n"))
	if err != nil || cfg.API.ClientID != 12 {
		t.Fatalf("config = %+v, %v", cfg, err)
	}
}
