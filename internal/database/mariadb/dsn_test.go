package mariadb

import (
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestNormalizeDSNForcesParseTime(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
	}{
		{"no options", "user:pass@tcp(localhost:3306)/facetrace"},
		{"parseTime already set", "user:pass@tcp(localhost:3306)/facetrace?parseTime=true"},
		{"parseTime disabled", "user:pass@tcp(localhost:3306)/facetrace?parseTime=false"},
		{"other options present", "user:pass@tcp(localhost:3306)/facetrace?charset=utf8mb4&timeout=5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalized, err := normalizeDSN(tt.dsn)
			if err != nil {
				t.Fatalf("normalizeDSN(%q) returned error: %v", tt.dsn, err)
			}

			cfg, err := mysql.ParseDSN(normalized)
			if err != nil {
				t.Fatalf("normalized DSN %q does not parse: %v", normalized, err)
			}
			if !cfg.ParseTime {
				t.Errorf("normalized DSN %q does not enable parseTime", normalized)
			}
			if cfg.User != "user" || cfg.Addr != "localhost:3306" || cfg.DBName != "facetrace" {
				t.Errorf("normalization changed connection fields: %+v", cfg)
			}
		})
	}
}

func TestNormalizeDSNKeepsOtherOptions(t *testing.T) {
	normalized, err := normalizeDSN("user:pass@tcp(localhost:3306)/facetrace?timeout=5s")
	if err != nil {
		t.Fatalf("normalizeDSN returned error: %v", err)
	}

	cfg, err := mysql.ParseDSN(normalized)
	if err != nil {
		t.Fatalf("normalized DSN does not parse: %v", err)
	}
	if cfg.Timeout.Seconds() != 5 {
		t.Errorf("timeout option lost during normalization: %+v", cfg)
	}
}

func TestNormalizeDSNRejectsGarbage(t *testing.T) {
	if _, err := normalizeDSN("not a dsn at all"); err == nil {
		t.Error("expected error for malformed DSN, got nil")
	}
}
