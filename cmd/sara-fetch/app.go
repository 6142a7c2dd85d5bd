// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/pdiddy/sara-fetch/internal/httputil"
	"github.com/pdiddy/sara-fetch/internal/ledger"
	"github.com/pdiddy/sara-fetch/internal/metrics"
	"github.com/pdiddy/sara-fetch/internal/secrets"
	"github.com/pdiddy/sara-fetch/internal/session"
	"github.com/pdiddy/sara-fetch/pkg/types"
)

// secretsMerge fills empty credential fields from .secrets/.
func secretsMerge(c types.Credentials) types.Credentials {
	return secrets.Merge(c, secrets.Credentials(loadedSecrets))
}

func loadConfig() types.PipelineConfig {
	return pipelineConfig(viper.GetViper())
}

// requireCredentials prompts for a missing password when stdin is a
// terminal.
func requireCredentials(cfg *types.PipelineConfig) error {
	creds := &cfg.Auth.Credentials
	if creds.Username == "" {
		return errors.New("no SARA username: set --username, SARA_FETCH_AUTH_USERNAME, or .secrets/sara-username")
	}
	if creds.Password != "" {
		return nil
	}
	pw, err := secrets.PromptPassword(os.Stdin, os.Stderr, creds.Username)
	if err != nil {
		return fmt.Errorf("no SARA password: %w", err)
	}
	creds.Password = pw
	return nil
}

// login opens a session and exchanges the credentials for a token. The
// session's client is returned for reuse by later API calls.
func login(ctx context.Context, cfg *types.PipelineConfig) (*session.Session, types.Token, error) {
	if err := requireCredentials(cfg); err != nil {
		return nil, "", err
	}
	client, err := httputil.NewClient(cfg.Catalog.HTTPConfig)
	if err != nil {
		return nil, "", err
	}
	s := session.New(client, cfg.Auth.Endpoint, cfg.Auth.Credentials, logger)
	token, err := s.Login(ctx)
	if err != nil {
		return nil, "", err
	}
	return s, token, nil
}

func openLedger(cfg types.PipelineConfig) (*ledger.Store, error) {
	store, err := ledger.Open(cfg.Ledger)
	if err != nil {
		return nil, fmt.Errorf("opening ledger in %s: %w", cfg.Ledger.DataDir, err)
	}
	return store, nil
}

// flushMetrics writes the textfile when one is configured.
func flushMetrics(cfg types.PipelineConfig, m *metrics.Metrics) {
	if cfg.Metrics.Textfile == "" {
		return
	}
	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		logger.Warn("metrics not written", "err", err)
	}
}
