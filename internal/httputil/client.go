// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages: client
// construction, status checking, and query-parameter injection.
package httputil

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/pdiddy/sara-fetch/pkg/types"
)

// maxErrorBody caps how much of a failed response body is kept for messages.
const maxErrorBody = 512

// NewClient returns an HTTP client with a cookie jar, so cookies and
// connections are reused for the client's lifetime, and a transport that
// sets cfg.UserAgent on requests that do not carry one. cfg.Timeout becomes
// the whole-request timeout; pass zero for streaming transfers and bound
// them with a context instead.
func NewClient(cfg types.HTTPConfig) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &http.Client{
		Jar:     jar,
		Timeout: cfg.Timeout,
		Transport: &userAgentTransport{
			base:      http.DefaultTransport,
			userAgent: cfg.UserAgent,
		},
	}, nil
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}

// StatusError describes a non-2xx HTTP response.
type StatusError struct {
	Code   int
	Status string
	// Body is the start of the response body, for diagnostics.
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %s", e.Status)
	}
	return fmt.Sprintf("HTTP %s: %s", e.Status, e.Body)
}

// CheckStatus returns nil for 2xx responses. Otherwise it reads the start of
// the body into a *StatusError; the caller still owns closing resp.Body.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	status := resp.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return &StatusError{
		Code:   resp.StatusCode,
		Status: status,
		Body:   strings.TrimSpace(string(snippet)),
	}
}

// StatusCode extracts the HTTP status from err when it wraps a *StatusError,
// or returns 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// AddQuery returns rawURL with key=value appended to its existing query.
// Existing parameters keep their order and encoding.
func AddQuery(rawURL, key, value string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing URL %q: %w", rawURL, err)
	}
	param := url.QueryEscape(key) + "=" + url.QueryEscape(value)
	if u.RawQuery == "" {
		u.RawQuery = param
	} else {
		u.RawQuery += "&" + param
	}
	return u.String(), nil
}
