package ecoapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/ecoledger/pkg/ecoledger"
)

const (
	defaultListenAddr    = ":8080"
	defaultOrgName       = "Hansraj Model School"
	defaultAllowedOrigin = "http://localhost:3000"
	defaultDatabaseDSN   = "mem"
	sqliteSchemePrefix   = "sqlite://"
)

// Config aggregates runtime settings for the eco-score API.
type Config struct {
	ListenAddr      string
	OrgName         string
	AllowedOrigins  []string
	DatabaseDSN     string
	SeedOnStart     bool
	SeedCount       int
	AdvisorEndpoint string
	AdvisorAPIKey   string
	AdvisorModel    string
	AdvisorTimeout  time.Duration
}

// Validate ensures the configuration contains sane values.
func (cfg *Config) Validate() error {
	cfg.ListenAddr = defaultIfEmpty(cfg.ListenAddr, defaultListenAddr)
	cfg.OrgName = defaultIfEmpty(cfg.OrgName, defaultOrgName)
	cfg.DatabaseDSN = defaultIfEmpty(cfg.DatabaseDSN, defaultDatabaseDSN)
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{defaultAllowedOrigin}
	}
	if cfg.SeedCount <= 0 {
		cfg.SeedCount = ecoledger.DefaultSeedCount
	}
	if cfg.AdvisorTimeout <= 0 {
		cfg.AdvisorTimeout = 15 * time.Second
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return fmt.Errorf("listen addr is required")
	}
	return nil
}

func defaultIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// ParseAllowedOrigins splits comma-delimited origins into a slice.
func ParseAllowedOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return normalized
}
