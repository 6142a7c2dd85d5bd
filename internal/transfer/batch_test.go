// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transfer

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sara-fetch/pkg/types"
)

func TestBatch(t *testing.T) {
	body := payload(2048)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Write(body)
	}))
	defer ts.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "present.zip"), body, 0o644))

	job := func(id, path string) Job {
		return Job{ProductIdentifier: id, Task: types.DownloadTask{
			URL: ts.URL + path, Token: "abc123", DestinationPath: filepath.Join(dir, id+".zip"),
		}}
	}
	jobs := []Job{job("fresh", "/fresh"), job("missing", "/missing"), job("present", "/present")}

	var progressFor []string
	var out bytes.Buffer
	result := (&Manager{}).Batch(context.Background(), jobs, &out, func(j Job) ProgressFunc {
		progressFor = append(progressFor, j.ProductIdentifier)
		return nil
	})

	assert.Equal(t, 1, result.Completed)
	assert.Equal(t, 1, result.AlreadyPresent)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 3, result.Total())
	assert.True(t, result.HasFailures())
	require.Len(t, result.Results, 3)
	assert.Error(t, result.Results[1].Err)
	assert.False(t, result.Results[0].FinishedAt.Before(result.Results[0].StartedAt))
	assert.Equal(t, []string{"fresh", "missing", "present"}, progressFor)

	text := out.String()
	assert.Contains(t, text, "done:     fresh")
	assert.Contains(t, text, "failed:   missing")
	assert.Contains(t, text, "skipped:  present")
	assert.Contains(t, text, "Batch summary: 1 downloaded, 1 already present, 0 short, 1 failed (total: 3)")
}

func TestBatch_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	result := (&Manager{}).Batch(ctx, []Job{{ProductIdentifier: "a"}, {ProductIdentifier: "b"}}, &out, nil)
	assert.Equal(t, 0, result.Total())
	assert.False(t, result.HasFailures())
}
