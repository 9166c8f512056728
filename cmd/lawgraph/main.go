// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the lawgraph CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/agoradev/lawgraph/internal/logging"
	"github.com/agoradev/lawgraph/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// log is the process-wide logger, built in PersistentPreRunE.
var log *zap.SugaredLogger

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when it is set, otherwise the secret
// value for key, otherwise "".
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the lawgraph CLI.
var rootCmd = &cobra.Command{
	Use:   "lawgraph",
	Short: "AI ingestion pipeline for Portuguese legal documents",
	Long: `lawgraph turns pre-chunked legal documents into a knowledge graph of laws,
articles, and the references between them. A generative AI backend splits each
document into preamble and articles, analyzes every item for tags, summaries,
and cross-references, and the graph builder persists the result.

Each stage is a subcommand (extract, analyze, ingest) keyed by the source's
UUID; run chains all three. Use status to inspect a source's progress and
export to dump a built law.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("log")
		l, err := logging.New(mode)
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		log = l

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./lawgraph.yaml or ~/.config/lawgraph/config.yaml)")
	rootCmd.PersistentFlags().String("log", "prod", "logger mode: dev or prod")
}

func initConfig() {
	// A local .env feeds the same variables the hosted deployment sets.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("lawgraph")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "lawgraph"))
		}
	}

	viper.SetEnvPrefix("LAWGRAPH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Legacy variable names from the hosted deployment keep working.
	_ = viper.BindEnv("store.url", "LAWGRAPH_STORE_URL", "SUPABASE_URL")
	_ = viper.BindEnv("store.service_key", "LAWGRAPH_STORE_SERVICE_KEY", "SUPABASE_SERVICE_ROLE_KEY")
	_ = viper.BindEnv("ai.api_key", "LAWGRAPH_AI_API_KEY", "GEMINI_API_KEY")

	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.model", "gemini-2.0-flash")
	viper.SetDefault("ai.max_retries", 3)
	viper.SetDefault("store.backend", "sqlite")
	viper.SetDefault("store.path", "lawgraph.db")
	viper.SetDefault("store.schema", "agora")
	viper.SetDefault("store.timeout", "60s")
	viper.SetDefault("extractor.split_char_budget", 8000)
	viper.SetDefault("analyst.workers", 5)
	viper.SetDefault("analyst.call_delay", "1s")
	viper.SetDefault("analyst.batch_size", 50)
	viper.SetDefault("analyst.safe_token_limit", 800000)
	viper.SetDefault("graph.government_entity_id", "3ee8d3ef-7226-4bf3-8ea2-6e2e036d203f")
	viper.SetDefault("graph.mandate_id", "50259b5a-054e-4bbf-a39d-637e7d1c1f9f")
	viper.SetDefault("graph.max_retries", 1)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
