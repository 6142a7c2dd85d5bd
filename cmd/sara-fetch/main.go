// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the sara-fetch CLI. It searches the
// SARA catalog for Sentinel-1 GRD products and downloads the archives.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/sara-fetch/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger carries the run_id of this invocation.
var logger = slog.Default()

// rootCmd is the base command for the sara-fetch CLI.
var rootCmd = &cobra.Command{
	Use:   "sara-fetch",
	Short: "Search and download Sentinel-1 GRD products from SARA",
	Long: `sara-fetch queries the SARA catalog (Copernicus Australasia) for Sentinel-1
GRD products over a region and date range, and downloads the product archives.

Downloads are idempotent: an archive whose size already matches the server's
Content-Length is skipped, and anything else is fetched again from the start.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
			With("run_id", uuid.NewString())
		slog.SetDefault(logger)

		secretsDir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(secretsDir, os.Stderr)
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
			logger.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./sara-fetch.yaml or ~/.config/sara-fetch/sara-fetch.yaml)")
	pf.String("env-file", ".env", "dotenv file loaded before reading the environment")
	pf.String("secrets-dir", ".secrets/", "directory of credential files (sara-username, sara-password)")
	pf.String("username", "", "SARA account e-mail")
	pf.String("password", "", "SARA account password (prefer .secrets/ or the environment)")
	pf.String("data-dir", "", "directory holding ledger.db (default ~/.local/share/sara-fetch)")
	pf.BoolP("verbose", "v", false, "debug logging")

	bindFlag("auth.username", "username")
	bindFlag("auth.password", "password")
	bindFlag("ledger.data_dir", "data-dir")
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() {
	envFile, _ := rootCmd.PersistentFlags().GetString("env-file")
	if err := secrets.LoadEnvFile(envFile); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("sara-fetch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "sara-fetch"))
		}
	}

	setDefaults(viper.GetViper())

	viper.SetEnvPrefix("SARA_FETCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
