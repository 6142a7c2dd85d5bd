// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transfer downloads product archives with size-based resume.
//
// A destination that already holds exactly the advertised number of bytes
// is left alone. Anything else is overwritten from byte zero, so a partial
// file left by an interrupted run heals on the next call. Only the byte
// count is checked; there is no checksum.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pdiddy/sara-fetch/internal/httputil"
	"github.com/pdiddy/sara-fetch/pkg/types"
)

// DefaultChunkSize is the copy buffer size used when Manager.ChunkSize is 0.
const DefaultChunkSize = 32 * 1024

// ProgressFunc is called after every chunk written with the running total
// and the advertised length (0 when unknown).
type ProgressFunc func(written, expected int64)

// Recorder observes finished transfers.
type Recorder interface {
	Observe(outcome types.TransferOutcome, elapsed time.Duration, err error)
}

// TransferError reports a failed transfer. Any partial file is left on disk.
type TransferError struct {
	// URL is the download URL without the token.
	URL  string
	Path string
	// Status is the HTTP status, or 0 when the failure was not an HTTP error.
	Status  int
	Written int64
	Err     error
}

func (e *TransferError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transfer %s: HTTP %d: %v", e.URL, e.Status, e.Err)
	}
	if e.Written > 0 {
		return fmt.Sprintf("transfer %s to %s: failed after %d bytes: %v", e.URL, e.Path, e.Written, e.Err)
	}
	return fmt.Sprintf("transfer %s: %v", e.URL, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// Manager performs downloads. The zero value uses http.DefaultClient and
// DefaultChunkSize. Transfers to the same destination through one Manager
// run one at a time.
type Manager struct {
	Client    *http.Client
	ChunkSize int
	UserAgent string

	// Timeout bounds a single transfer; zero means only ctx bounds it.
	Timeout time.Duration

	Logger   *slog.Logger
	Recorder Recorder

	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	mu   sync.Mutex
	refs int
}

// Download fetches task.URL into task.DestinationPath. A nil onProgress is
// allowed. A length mismatch is reported through the outcome status, not
// as an error.
func (m *Manager) Download(ctx context.Context, task types.DownloadTask, onProgress ProgressFunc) (types.TransferOutcome, error) {
	unlock := m.lock(task.DestinationPath)
	defer unlock()

	start := time.Now()
	outcome, err := m.download(ctx, task, onProgress)
	if m.Recorder != nil {
		m.Recorder.Observe(outcome, time.Since(start), err)
	}
	return outcome, err
}

func (m *Manager) download(ctx context.Context, task types.DownloadTask, onProgress ProgressFunc) (types.TransferOutcome, error) {
	log := m.logger().With("path", task.DestinationPath)
	fail := func(status int, written int64, err error) (types.TransferOutcome, error) {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return types.TransferOutcome{BytesWritten: written}, &TransferError{
			URL: task.URL, Path: task.DestinationPath, Status: status, Written: written, Err: err,
		}
	}

	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	target := task.URL
	if task.Token != "" {
		var err error
		if target, err = httputil.AddQuery(task.URL, "_bearer", task.Token.String()); err != nil {
			return fail(0, 0, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fail(0, 0, fmt.Errorf("creating request: %w", err))
	}
	if m.UserAgent != "" {
		req.Header.Set("User-Agent", m.UserAgent)
	}

	resp, err := m.client().Do(req)
	if err != nil {
		return fail(0, 0, err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp); err != nil {
		return fail(httputil.StatusCode(err), 0, err)
	}

	expected := resp.ContentLength
	if expected < 0 {
		expected = 0
	}

	if err := os.MkdirAll(filepath.Dir(task.DestinationPath), 0o755); err != nil {
		return fail(0, 0, fmt.Errorf("creating directory: %w", err))
	}

	if expected > 0 {
		if info, err := os.Stat(task.DestinationPath); err == nil && info.Mode().IsRegular() && info.Size() == expected {
			log.Info("already present", "bytes", expected)
			return types.TransferOutcome{ExpectedBytes: expected, Status: types.StatusAlreadyPresent}, nil
		}
	}

	f, err := os.Create(task.DestinationPath)
	if err != nil {
		return fail(0, 0, fmt.Errorf("creating file: %w", err))
	}

	log.Debug("transfer started", "expected", expected)
	written, copyErr := m.copy(f, resp.Body, expected, onProgress)
	closeErr := f.Close()
	if copyErr == nil && ctx.Err() != nil && (expected == 0 || written != expected) {
		copyErr = ctx.Err()
	}
	if copyErr != nil {
		return fail(0, written, copyErr)
	}
	if closeErr != nil {
		return fail(0, written, fmt.Errorf("closing file: %w", closeErr))
	}

	outcome := types.TransferOutcome{BytesWritten: written, ExpectedBytes: expected, Status: types.StatusCompleted}
	if expected > 0 && written != expected {
		outcome.Status = types.StatusSizeMismatch
		log.Warn("size mismatch", "expected", expected, "written", written)
		return outcome, nil
	}
	log.Info("transfer complete", "bytes", written)
	return outcome, nil
}

// copy streams src to dst in chunks. A body that ends early against its
// declared length is treated as end of stream so the caller can report the
// mismatch.
func (m *Manager) copy(dst io.Writer, src io.Reader, expected int64, onProgress ProgressFunc) (int64, error) {
	size := m.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	buf := make([]byte, size)

	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			w, err := dst.Write(buf[:n])
			written += int64(w)
			if err != nil {
				return written, fmt.Errorf("writing file: %w", err)
			}
			if w != n {
				return written, fmt.Errorf("writing file: %w", io.ErrShortWrite)
			}
			if onProgress != nil {
				onProgress(written, expected)
			}
		}
		switch {
		case readErr == nil:
		case errors.Is(readErr, io.EOF), errors.Is(readErr, io.ErrUnexpectedEOF):
			return written, nil
		default:
			return written, readErr
		}
	}
}

func (m *Manager) client() *http.Client {
	if m.Client != nil {
		return m.Client
	}
	return http.DefaultClient
}

func (m *Manager) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// lock serializes transfers to one destination path.
func (m *Manager) lock(path string) func() {
	key := filepath.Clean(path)

	m.mu.Lock()
	if m.locks == nil {
		m.locks = make(map[string]*pathLock)
	}
	l, ok := m.locks[key]
	if !ok {
		l = &pathLock{}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
	}
}
