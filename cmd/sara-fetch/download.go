// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/sara-fetch/internal/catalog"
	"github.com/pdiddy/sara-fetch/internal/httputil"
	"github.com/pdiddy/sara-fetch/internal/ledger"
	"github.com/pdiddy/sara-fetch/internal/metrics"
	"github.com/pdiddy/sara-fetch/internal/mirror"
	"github.com/pdiddy/sara-fetch/internal/normalize"
	"github.com/pdiddy/sara-fetch/internal/transfer"
	"github.com/pdiddy/sara-fetch/pkg/types"
)

var downloadCmd = &cobra.Command{
	Use:   "download [numbers...]",
	Short: "Download product archives from the last search",
	Long: `Download fetches the archives of products listed by the last search (or a
query file saved with search --save). Products are picked by the numbers shown
in the search listing, or all of them with --all.

Each archive is written to <output-dir>/<productIdentifier>.zip. A file whose
size equals the server's Content-Length is skipped; any other file is fetched
again from the first byte. Downloads run one at a time, oldest product first.`,
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().Bool("all", false, "download every product of the search")
	downloadCmd.Flags().String("from-file", "", "read products from a saved query file instead of the ledger")
	downloadCmd.Flags().String("output-dir", "", "directory for archives (default from config, else ./downloads)")
	downloadCmd.Flags().Bool("no-progress", false, "disable progress bars")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	if !all && len(args) == 0 {
		return errors.New("name products by number or pass --all")
	}
	if all && len(args) > 0 {
		return errors.New("--all cannot be combined with product numbers")
	}

	ctx := cmd.Context()
	cfg := loadConfig()
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		cfg.Download.OutputDir = dir
	}

	store, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	fromFile, _ := cmd.Flags().GetString("from-file")
	results, err := loadResults(ctx, store, fromFile)
	if err != nil {
		return err
	}
	items, err := selectItems(results, args, all)
	if err != nil {
		return err
	}

	// Prompt before progress bars take over the terminal.
	if err := requireCredentials(&cfg); err != nil {
		return err
	}

	var progressFor func(transfer.Job) transfer.ProgressFunc
	if quiet, _ := cmd.Flags().GetBool("no-progress"); !quiet {
		view := newProgressView(os.Stderr)
		progressFor = view.track
		defer view.stop()
	}

	result, err := downloadItems(ctx, cfg, store, items, cmd.OutOrStdout(), progressFor)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d product(s) failed, %d came out short", result.Failed, result.Mismatched)
	}
	return nil
}

// downloadItems logs in once, transfers items in order, and records every
// attempt in the ledger and metrics. Archives are mirrored when a bucket is
// configured.
func downloadItems(ctx context.Context, cfg types.PipelineConfig, store *ledger.Store, items []normalize.Item, w io.Writer, progressFor func(transfer.Job) transfer.ProgressFunc) (transfer.BatchResult, error) {
	_, token, err := login(ctx, &cfg)
	if err != nil {
		return transfer.BatchResult{}, err
	}

	// Transfers are bounded by TransferTimeout, not the API timeout.
	client, err := httputil.NewClient(cfg.Download.HTTPConfig)
	if err != nil {
		return transfer.BatchResult{}, err
	}
	m := metrics.New()
	defer flushMetrics(cfg, m)

	manager := &transfer.Manager{
		Client:    client,
		ChunkSize: cfg.Download.ChunkSize,
		UserAgent: cfg.Download.UserAgent,
		Timeout:   cfg.Download.TransferTimeout,
		Logger:    logger,
		Recorder:  m,
	}

	jobs := make([]transfer.Job, len(items))
	for i, it := range items {
		jobs[i] = transfer.Job{
			ProductIdentifier: it.Record.ProductIdentifier,
			Task: types.DownloadTask{
				URL:             it.Record.DownloadURL,
				Token:           token,
				DestinationPath: filepath.Join(cfg.Download.OutputDir, it.Record.ProductIdentifier+".zip"),
			},
		}
	}

	result := manager.Batch(ctx, jobs, w, progressFor)

	if err := recordBatch(ctx, store, result); err != nil {
		return result, err
	}
	if cfg.Mirror.Enabled() {
		if err := mirrorBatch(ctx, cfg, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

// loadResults rebuilds the ordered collection from a query file or from the
// latest search in the ledger.
func loadResults(ctx context.Context, store *ledger.Store, fromFile string) (*normalize.ResultCollection, error) {
	if fromFile != "" {
		qf, err := catalog.ReadQueryFile(fromFile)
		if err != nil {
			return nil, err
		}
		return normalize.Normalize(qf.Results)
	}

	latest, err := store.LatestSearch(ctx)
	if errors.Is(err, ledger.ErrNoSearch) {
		return nil, errors.New("no search to download from: run search first or pass --from-file")
	}
	if err != nil {
		return nil, err
	}
	products, err := store.Products(ctx, latest.ID)
	if err != nil {
		return nil, err
	}
	records := make([]types.ProductRecord, 0, len(products))
	for _, p := range products {
		rec, err := p.Record()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return normalize.Normalize(records)
}

// selectItems picks products by 1-based number, keeping collection order
// for --all and argument order otherwise.
func selectItems(results *normalize.ResultCollection, args []string, all bool) ([]normalize.Item, error) {
	if results.Len() == 0 {
		return nil, errors.New("the search has no products")
	}
	if all {
		items := make([]normalize.Item, results.Len())
		for i := range items {
			items[i] = results.At(i)
		}
		return items, nil
	}

	seen := make(map[int]bool)
	var items []normalize.Item
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid product number %q", arg)
		}
		it, err := results.Ordinal(n)
		if err != nil {
			return nil, err
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		items = append(items, it)
	}
	return items, nil
}

func recordBatch(ctx context.Context, store *ledger.Store, result transfer.BatchResult) error {
	for _, r := range result.Results {
		rec := ledger.NewTransferRecord(r.Job.ProductIdentifier, r.Job.Task.DestinationPath, r.Outcome, r.Err, r.StartedAt, r.FinishedAt)
		if err := store.RecordTransfer(context.WithoutCancel(ctx), rec); err != nil {
			return err
		}
	}
	return nil
}

// mirrorBatch uploads every archive that is complete on disk.
func mirrorBatch(ctx context.Context, cfg types.PipelineConfig, result transfer.BatchResult) error {
	mr, err := mirror.New(ctx, cfg.Mirror, logger)
	if err != nil {
		return err
	}
	var failed int
	for _, r := range result.Results {
		if r.Err != nil || r.Outcome.Status == types.StatusSizeMismatch {
			continue
		}
		res, err := mr.Put(ctx, r.Job.Task.DestinationPath, r.Job.ProductIdentifier)
		if err != nil {
			logger.Error("mirror failed", "product", r.Job.ProductIdentifier, "err", err)
			failed++
			continue
		}
		if res.Skipped {
			fmt.Fprintf(os.Stderr, "mirror:   %s (unchanged)\n", res.Key)
		} else {
			fmt.Fprintf(os.Stderr, "mirror:   %s (%s)\n", res.Key, formatSize(res.Bytes))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d archive(s) failed to mirror", failed)
	}
	return nil
}
