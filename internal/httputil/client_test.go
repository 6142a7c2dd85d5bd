// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sara-fetch/pkg/types"
)

func TestNewClient_SetsUserAgent(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client, err := NewClient(types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "sara-fetch-test/0.1"})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, client.Timeout)
	assert.NotNil(t, client.Jar)

	resp, err := client.Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "sara-fetch-test/0.1", gotUA)
}

func TestNewClient_KeepsExplicitUserAgent(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer ts.Close()

	client, err := NewClient(types.HTTPConfig{UserAgent: "default/1"})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "explicit/2")
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "explicit/2", gotUA)
}

func TestNewClient_ReusesCookies(t *testing.T) {
	var secondCookie string
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "s1", Path: "/"})
			return
		}
		if c, err := r.Cookie("JSESSIONID"); err == nil {
			secondCookie = c.Value
		}
	}))
	defer ts.Close()

	client, err := NewClient(types.HTTPConfig{})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		resp, err := client.Get(ts.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, "s1", secondCookie)
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		body     string
		wantErr  bool
		wantBody string
	}{
		{"ok", http.StatusOK, "fine", false, ""},
		{"no content", http.StatusNoContent, "", false, ""},
		{"unauthorized", http.StatusUnauthorized, "bad credentials\n", true, "bad credentials"},
		{"server error", http.StatusInternalServerError, "", true, ""},
		{"long body truncated", http.StatusBadRequest, strings.Repeat("x", 2000), true, strings.Repeat("x", maxErrorBody)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{
				StatusCode: tt.code,
				Body:       http.NoBody,
			}
			if tt.body != "" {
				resp.Body = io.NopCloser(strings.NewReader(tt.body))
			}
			err := CheckStatus(resp)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.code, se.Code)
			assert.Equal(t, tt.wantBody, se.Body)
			assert.Equal(t, tt.code, StatusCode(err))
		})
	}
}

func TestAddQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no query", "https://example.test/dl/S1A.zip", "https://example.test/dl/S1A.zip?_bearer=tok+en%2F1"},
		{"existing query kept in order", "https://example.test/dl?z=1&a=2", "https://example.test/dl?z=1&a=2&_bearer=tok+en%2F1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AddQuery(tt.in, "_bearer", "tok en/1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := AddQuery("://bad", "k", "v")
	assert.Error(t, err)
}
