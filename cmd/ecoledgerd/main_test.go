package main

import (
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/MarkoPoloResearchLab/ecoledger/internal/ecoapi"
)

// viper state is process-global, so these tests reset it and stay serial.

func loadTestConfig(test *testing.T, args []string) ecoapi.Config {
	test.Helper()
	viper.Reset()
	cmd := newRootCommand()
	if err := cmd.ParseFlags(args); err != nil {
		test.Fatalf("parse flags: %v", err)
	}
	cfg := ecoapi.Config{}
	if err := loadConfig(cmd, &cfg); err != nil {
		test.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestLoadConfigDefaults(test *testing.T) {
	cfg := loadTestConfig(test, nil)
	if cfg.ListenAddr != defaultListenAddr || cfg.DatabaseDSN != defaultDatabaseURL {
		test.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AdvisorTimeout != defaultAdvisorTimeout {
		test.Fatalf("expected default advisor timeout %v, got %v", defaultAdvisorTimeout, cfg.AdvisorTimeout)
	}
	if !cfg.SeedOnStart {
		test.Fatalf("expected seeding enabled by default")
	}
}

func TestLoadConfigBindsAdvisorTimeoutFlag(test *testing.T) {
	cfg := loadTestConfig(test, []string{"--advisor-timeout", "3s"})
	if cfg.AdvisorTimeout != 3*time.Second {
		test.Fatalf("expected 3s advisor timeout, got %v", cfg.AdvisorTimeout)
	}
}

func TestLoadConfigBindsAdvisorTimeoutEnv(test *testing.T) {
	test.Setenv("ADVISOR_TIMEOUT", "45s")
	cfg := loadTestConfig(test, nil)
	if cfg.AdvisorTimeout != 45*time.Second {
		test.Fatalf("expected 45s advisor timeout, got %v", cfg.AdvisorTimeout)
	}
}

func TestLoadConfigBindsEnvOverFlagDefaults(test *testing.T) {
	test.Setenv("ORG_NAME", "Riverdale Academy")
	test.Setenv("SEED_COUNT", "17")
	cfg := loadTestConfig(test, nil)
	if cfg.OrgName != "Riverdale Academy" {
		test.Fatalf("unexpected org name %q", cfg.OrgName)
	}
	if cfg.SeedCount != 17 {
		test.Fatalf("unexpected seed count %d", cfg.SeedCount)
	}
}
