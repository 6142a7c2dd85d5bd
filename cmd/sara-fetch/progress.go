// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"

	"github.com/pdiddy/sara-fetch/internal/transfer"
)

// progressView draws one tracker per transfer.
type progressView struct {
	pw       progress.Writer
	trackers []*progress.Tracker
}

func newProgressView(w io.Writer) *progressView {
	pw := progress.NewWriter()
	pw.SetOutputWriter(w)
	pw.SetAutoStop(false)
	pw.SetTrackerLength(30)
	pw.SetMessageLength(40)
	pw.SetUpdateFrequency(200 * time.Millisecond)
	pw.SetStyle(progress.StyleDefault)
	pw.Style().Visibility.ETA = true
	pw.Style().Visibility.Speed = true
	go pw.Render()
	return &progressView{pw: pw}
}

// track returns a ProgressFunc feeding a new tracker for job.
func (v *progressView) track(job transfer.Job) transfer.ProgressFunc {
	t := &progress.Tracker{Message: job.ProductIdentifier, Units: progress.UnitsBytes}
	v.pw.AppendTracker(t)
	v.trackers = append(v.trackers, t)
	var total int64
	return func(written, expected int64) {
		if expected > 0 && total != expected {
			total = expected
			t.UpdateTotal(expected)
		}
		t.SetValue(written)
		if expected > 0 && written >= expected {
			t.MarkAsDone()
		}
	}
}

// stop closes trackers that never reached their total (skipped, failed
// or of unknown length) and finishes rendering.
func (v *progressView) stop() {
	for _, t := range v.trackers {
		if !t.IsDone() {
			t.MarkAsDone()
		}
	}
	v.pw.Stop()
	for v.pw.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}

func formatSize(n int64) string {
	if n <= 0 {
		return "-"
	}
	return progress.FormatBytes(n)
}
