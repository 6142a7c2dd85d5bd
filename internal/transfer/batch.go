// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/sara-fetch/pkg/types"
)

// Job is one product to download.
type Job struct {
	ProductIdentifier string
	Task              types.DownloadTask
}

// JobResult pairs a job with what happened to it.
type JobResult struct {
	Job        Job
	Outcome    types.TransferOutcome
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// BatchResult holds the outcome of a batch run.
type BatchResult struct {
	Completed      int
	AlreadyPresent int
	Mismatched     int
	Failed         int
	Results        []JobResult
}

// Total returns the number of jobs processed.
func (r BatchResult) Total() int {
	return r.Completed + r.AlreadyPresent + r.Mismatched + r.Failed
}

// HasFailures reports whether any job failed or came out short.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0 || r.Mismatched > 0
}

// Batch downloads jobs one after another, printing a status line per job to
// w. It carries on after individual failures and stops early only when ctx
// is done. progress may be nil; otherwise it supplies the ProgressFunc for
// each job.
func (m *Manager) Batch(ctx context.Context, jobs []Job, w io.Writer, progress func(Job) ProgressFunc) BatchResult {
	var result BatchResult
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		var onProgress ProgressFunc
		if progress != nil {
			onProgress = progress(job)
		}

		started := time.Now()
		outcome, err := m.Download(ctx, job.Task, onProgress)
		result.Results = append(result.Results, JobResult{
			Job: job, Outcome: outcome, Err: err, StartedAt: started, FinishedAt: time.Now(),
		})
		switch {
		case err != nil:
			result.Failed++
			fmt.Fprintf(w, "failed:   %s (%v)\n", job.ProductIdentifier, err)
			if errors.Is(err, context.Canceled) {
				fmt.Fprintf(w, "cancelled: remaining downloads skipped\n")
				return summarize(w, result)
			}
		case outcome.Status == types.StatusAlreadyPresent:
			result.AlreadyPresent++
			fmt.Fprintf(w, "skipped:  %s (already present, %d bytes)\n", job.ProductIdentifier, outcome.ExpectedBytes)
		case outcome.Status == types.StatusSizeMismatch:
			result.Mismatched++
			fmt.Fprintf(w, "short:    %s (%d of %d bytes)\n", job.ProductIdentifier, outcome.BytesWritten, outcome.ExpectedBytes)
		default:
			result.Completed++
			fmt.Fprintf(w, "done:     %s (%d bytes)\n", job.ProductIdentifier, outcome.BytesWritten)
		}
	}
	return summarize(w, result)
}

func summarize(w io.Writer, r BatchResult) BatchResult {
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d already present, %d short, %d failed (total: %d)\n",
		r.Completed, r.AlreadyPresent, r.Mismatched, r.Failed, r.Total())
	return r
}
