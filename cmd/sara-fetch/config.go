// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/sara-fetch/internal/catalog"
	"github.com/pdiddy/sara-fetch/internal/session"
	"github.com/pdiddy/sara-fetch/internal/transfer"
	"github.com/pdiddy/sara-fetch/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "sara-fetch/0.1"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.timeout", defaultTimeout)
	v.SetDefault("http.user_agent", defaultUserAgent)
	v.SetDefault("auth.endpoint", session.DefaultEndpoint)
	v.SetDefault("catalog.endpoint", catalog.DefaultEndpoint)
	v.SetDefault("catalog.authenticated", true)
	v.SetDefault("download.output_dir", "downloads")
	v.SetDefault("download.chunk_size", transfer.DefaultChunkSize)
	v.SetDefault("download.transfer_timeout", time.Duration(0))
}

// pipelineConfig assembles the stage configuration from viper (flags,
// environment, config file) and fills missing credentials from .secrets/.
func pipelineConfig(v *viper.Viper) types.PipelineConfig {
	httpCfg := types.HTTPConfig{
		Timeout:   v.GetDuration("http.timeout"),
		UserAgent: v.GetString("http.user_agent"),
	}

	creds := secretsMerge(types.Credentials{
		Username: v.GetString("auth.username"),
		Password: v.GetString("auth.password"),
	})

	dataDir := v.GetString("ledger.data_dir")
	if dataDir == "" {
		dataDir = defaultDataDir()
	}

	return types.PipelineConfig{
		Auth: types.AuthConfig{
			Endpoint:    v.GetString("auth.endpoint"),
			Credentials: creds,
		},
		Catalog: types.CatalogConfig{
			HTTPConfig:    httpCfg,
			Endpoint:      v.GetString("catalog.endpoint"),
			Authenticated: v.GetBool("catalog.authenticated"),
		},
		Download: types.DownloadConfig{
			HTTPConfig:      types.HTTPConfig{UserAgent: httpCfg.UserAgent},
			OutputDir:       v.GetString("download.output_dir"),
			ChunkSize:       v.GetInt("download.chunk_size"),
			TransferTimeout: v.GetDuration("download.transfer_timeout"),
		},
		Ledger: types.LedgerConfig{DataDir: dataDir},
		Mirror: types.MirrorConfig{
			Bucket: v.GetString("mirror.bucket"),
			Prefix: v.GetString("mirror.prefix"),
			Region: v.GetString("mirror.region"),
		},
		Metrics: types.MetricsConfig{Textfile: v.GetString("metrics.textfile")},
	}
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "sara-fetch")
	}
	return ".sara-fetch"
}
