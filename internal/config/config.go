package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Recognition RecognitionConfig
	Extractor   ExtractorConfig
	Database    DatabaseConfig
	Storage     StorageConfig
	SMTP        SMTPConfig
	Web         WebConfig
}

// RecognitionConfig holds the matching parameters. Defaults come from
// the embedded defaults.yaml; the threshold is tuned for InsightFace
// buffalo_l embeddings and is not expected to change per deployment.
type RecognitionConfig struct {
	Threshold float64 `yaml:"threshold"` // minimum cosine similarity to accept a match
	Dim       int     `yaml:"dim"`       // embedding dimension
}

type ExtractorConfig struct {
	URL string `yaml:"url"` // face embedding server base URL
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MariaDBDSN   string // MariaDB DSN, used when URL is empty
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
	HNSWEnabled  bool   // Serve identification from an in-memory HNSW index
}

type StorageConfig struct {
	UploadDir string // reference images land here
	QueryDir  string // identified query images land here
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type WebConfig struct {
	SessionSecret string
}

// embeddedDefaults mirrors the structure of defaults.yaml.
type embeddedDefaults struct {
	Recognition RecognitionConfig `yaml:"recognition"`
	Extractor   ExtractorConfig   `yaml:"extractor"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envBool reads an environment variable and parses it as a boolean.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

// envOr returns the env var value or the given default when unset.
func envOr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	var defaults embeddedDefaults
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// Embedded file, so this can only happen on a broken build.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Recognition: defaults.Recognition,
		Extractor: ExtractorConfig{
			URL: envOr("EXTRACTOR_URL", defaults.Extractor.URL),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MariaDBDSN:   os.Getenv("MARIADB_DSN"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
			HNSWEnabled:  envBool("HNSW_ENABLED", false),
		},
		Storage: StorageConfig{
			UploadDir: envOr("UPLOAD_DIR", "uploads"),
			QueryDir:  envOr("QUERY_DIR", "queries"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     envOr("SMTP_FROM", os.Getenv("SMTP_USERNAME")),
		},
		Web: WebConfig{
			SessionSecret: os.Getenv("WEB_SESSION_SECRET"),
		},
	}
}
