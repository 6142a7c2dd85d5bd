// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session exchanges SARA account credentials for a bearer token.
//
// A Session owns its HTTP client (cookies and pooled connections live as
// long as the Session). The token is returned to the caller and never kept
// on the Session: downstream stages receive it explicitly.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/pdiddy/sara-fetch/internal/httputil"
	"github.com/pdiddy/sara-fetch/pkg/types"
)

// DefaultEndpoint is the SARA user/connect URL.
const DefaultEndpoint = "https://copernicus.nci.org.au/sara.server/1.0/api/user/connect"

// AuthenticationError reports a rejected login or a malformed login response.
type AuthenticationError struct {
	// Status is the HTTP status code, or 0 when no response was received.
	Status int
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	msg := "authentication failed: " + e.Reason
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// Session holds one credential pair and the HTTP client used to present it.
type Session struct {
	client   *http.Client
	endpoint string
	creds    types.Credentials
	logger   *slog.Logger
}

// New returns a Session. A nil logger discards log output.
func New(client *http.Client, endpoint string, creds types.Credentials, logger *slog.Logger) *Session {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{client: client, endpoint: endpoint, creds: creds, logger: logger}
}

// Client returns the session's HTTP client so later requests reuse its
// cookies and connections.
func (s *Session) Client() *http.Client { return s.client }

type connectRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login posts the credentials and returns a fresh token. Every call performs
// a new exchange; there is no caching.
func (s *Session) Login(ctx context.Context) (types.Token, error) {
	body, err := json.Marshal(connectRequest{Email: s.creds.Username, Password: s.creds.Password})
	if err != nil {
		return "", &AuthenticationError{Reason: "encoding credentials", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &AuthenticationError{Reason: "creating request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	s.logger.Debug("requesting token", "endpoint", s.endpoint, "user", s.creds.Username)
	resp, err := s.client.Do(req)
	if err != nil {
		return "", &AuthenticationError{Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp); err != nil {
		return "", &AuthenticationError{Status: resp.StatusCode, Reason: "credentials rejected", Err: err}
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &AuthenticationError{Status: resp.StatusCode, Reason: "malformed response", Err: err}
	}
	raw, ok := payload["token"]
	if !ok {
		return "", &AuthenticationError{Status: resp.StatusCode, Reason: "response has no token field"}
	}
	token, ok := raw.(string)
	if !ok || token == "" {
		return "", &AuthenticationError{Status: resp.StatusCode, Reason: fmt.Sprintf("token field is %T, want non-empty string", raw)}
	}

	s.logger.Info("logged in", "user", s.creds.Username)
	return types.Token(token), nil
}
