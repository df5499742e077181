package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MarkoPoloResearchLab/ecoledger/internal/ecoapi"
)

const (
	flagListenAddr      = "listen-addr"
	flagDatabaseURL     = "database-url"
	flagOrgName         = "org-name"
	flagAllowedOrigins  = "allowed-origins"
	flagSeed            = "seed"
	flagSeedCount       = "seed-count"
	flagAdvisorEndpoint = "advisor-endpoint"
	flagAdvisorAPIKey   = "advisor-api-key"
	flagAdvisorModel    = "advisor-model"
	flagAdvisorTimeout  = "advisor-timeout"

	configKeyListenAddr      = "listen_addr"
	configKeyDatabaseURL     = "database_url"
	configKeyOrgName         = "org_name"
	configKeyAllowedOrigins  = "allowed_origins"
	configKeySeed            = "seed"
	configKeySeedCount       = "seed_count"
	configKeyAdvisorEndpoint = "advisor_endpoint"
	configKeyAdvisorAPIKey   = "advisor_api_key"
	configKeyAdvisorModel    = "advisor_model"
	configKeyAdvisorTimeout  = "advisor_timeout"

	defaultListenAddr     = ":8080"
	defaultDatabaseURL    = "mem"
	defaultOrgName        = "Hansraj Model School"
	defaultAdvisorTimeout = 15 * time.Second
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ecoledgerd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &ecoapi.Config{}
	cmd := &cobra.Command{
		Use:           "ecoledgerd",
		Short:         "Green-activity credit ledger HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return ecoapi.Run(ctx, *cfg)
		},
	}

	cmd.Flags().String(flagListenAddr, defaultListenAddr, "HTTP listen address")
	cmd.Flags().String(flagDatabaseURL, defaultDatabaseURL, "ledger store DSN: mem, :memory:, or a sqlite path")
	cmd.Flags().String(flagOrgName, defaultOrgName, "organization name used in report exports")
	cmd.Flags().String(flagAllowedOrigins, "", "comma-delimited CORS origins")
	cmd.Flags().Bool(flagSeed, true, "seed a demo ledger on startup")
	cmd.Flags().Int(flagSeedCount, 0, "number of demo entries to seed (0 for the default)")
	cmd.Flags().String(flagAdvisorEndpoint, "", "advice-generation endpoint (empty disables advice)")
	cmd.Flags().String(flagAdvisorAPIKey, "", "advice-generation API key")
	cmd.Flags().String(flagAdvisorModel, "", "advice-generation model name")
	cmd.Flags().Duration(flagAdvisorTimeout, defaultAdvisorTimeout, "advice-generation request timeout")

	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *ecoapi.Config) error {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	bindings := map[string]string{
		configKeyListenAddr:      "LISTEN_ADDR",
		configKeyDatabaseURL:     "DATABASE_URL",
		configKeyOrgName:         "ORG_NAME",
		configKeyAllowedOrigins:  "ALLOWED_ORIGINS",
		configKeySeed:            "SEED",
		configKeySeedCount:       "SEED_COUNT",
		configKeyAdvisorEndpoint: "ADVISOR_ENDPOINT",
		configKeyAdvisorAPIKey:   "ADVISOR_API_KEY",
		configKeyAdvisorModel:    "ADVISOR_MODEL",
		configKeyAdvisorTimeout:  "ADVISOR_TIMEOUT",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			return err
		}
	}

	flags := map[string]string{
		configKeyListenAddr:      flagListenAddr,
		configKeyDatabaseURL:     flagDatabaseURL,
		configKeyOrgName:         flagOrgName,
		configKeyAllowedOrigins:  flagAllowedOrigins,
		configKeySeed:            flagSeed,
		configKeySeedCount:       flagSeedCount,
		configKeyAdvisorEndpoint: flagAdvisorEndpoint,
		configKeyAdvisorAPIKey:   flagAdvisorAPIKey,
		configKeyAdvisorModel:    flagAdvisorModel,
		configKeyAdvisorTimeout:  flagAdvisorTimeout,
	}
	for key, flag := range flags {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}

	cfg.ListenAddr = viper.GetString(configKeyListenAddr)
	cfg.DatabaseDSN = viper.GetString(configKeyDatabaseURL)
	cfg.OrgName = viper.GetString(configKeyOrgName)
	cfg.AllowedOrigins = ecoapi.ParseAllowedOrigins(viper.GetString(configKeyAllowedOrigins))
	cfg.SeedOnStart = viper.GetBool(configKeySeed)
	cfg.SeedCount = viper.GetInt(configKeySeedCount)
	cfg.AdvisorEndpoint = viper.GetString(configKeyAdvisorEndpoint)
	cfg.AdvisorAPIKey = viper.GetString(configKeyAdvisorAPIKey)
	cfg.AdvisorModel = viper.GetString(configKeyAdvisorModel)
	cfg.AdvisorTimeout = viper.GetDuration(configKeyAdvisorTimeout)

	return cfg.Validate()
}
