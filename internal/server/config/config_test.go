package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if cfg.DatabaseDSN == "" {
		t.Fatal("expected a default DSN")
	}
	if cfg.S3Bucket != "vault" {
		t.Fatalf("unexpected default bucket: %s", cfg.S3Bucket)
	}
	if cfg.RetryMaxAttempts != 3 {
		t.Fatalf("unexpected default retry attempts: %d", cfg.RetryMaxAttempts)
	}
	if cfg.AnchorEnabled {
		t.Fatal("anchoring must be off by default")
	}
}

func TestParseFlags_Overrides(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	os.Args = []string{"vaultcli",
		"-d", "postgres://example/db",
		"-b", "other-bucket",
		"-r", "5",
		"-w", "250",
	}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	if cfg.DatabaseDSN != "postgres://example/db" {
		t.Fatalf("DSN not overridden: %s", cfg.DatabaseDSN)
	}
	if cfg.S3Bucket != "other-bucket" {
		t.Fatalf("bucket not overridden: %s", cfg.S3Bucket)
	}
	if cfg.RetryMaxAttempts != 5 {
		t.Fatalf("retry attempts not overridden: %d", cfg.RetryMaxAttempts)
	}
	if cfg.RetryBaseDelay != 250*time.Millisecond {
		t.Fatalf("retry delay not overridden: %v", cfg.RetryBaseDelay)
	}
}

func TestParseJson_Overrides(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	content := `{
		"database_dsn": "postgres://json/db",
		"s3_bucket": "json-bucket",
		"retry_max_attempts": 7,
		"retry_base_delay": "1s",
		"anchor_enabled": true
	}`

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	os.Args = []string{"vaultcli", "-c", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	if cfg.DatabaseDSN != "postgres://json/db" {
		t.Fatalf("DSN not overridden: %s", cfg.DatabaseDSN)
	}
	if cfg.S3Bucket != "json-bucket" {
		t.Fatalf("bucket not overridden: %s", cfg.S3Bucket)
	}
	if cfg.RetryMaxAttempts != 7 {
		t.Fatalf("retry attempts not overridden: %d", cfg.RetryMaxAttempts)
	}
	if cfg.RetryBaseDelay != time.Second {
		t.Fatalf("retry delay not overridden: %v", cfg.RetryBaseDelay)
	}
	if !cfg.AnchorEnabled {
		t.Fatal("anchoring not enabled")
	}
}

func TestParseJson_NoFileIsNoop(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"vaultcli"}

	cfg := &Config{}
	cfg.LoadDefaults()
	before := *cfg

	parseJson(cfg)

	if *cfg != before {
		t.Fatal("config changed without a JSON file")
	}
}
