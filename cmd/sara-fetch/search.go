// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pdiddy/sara-fetch/internal/catalog"
	"github.com/pdiddy/sara-fetch/internal/geometry"
	"github.com/pdiddy/sara-fetch/internal/metrics"
	"github.com/pdiddy/sara-fetch/internal/normalize"
	"github.com/pdiddy/sara-fetch/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find Sentinel-1 GRD products over a region and date range",
	Long: `Search queries the SARA catalog for GRD products whose acquisition falls
between --from and --to and whose footprint meets the region. The region is
WKT (POLYGON or MULTIPOLYGON) given inline or as a file; a file may also hold
GeoJSON. Results are listed oldest first with the numbers used by download.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("from", "", "acquisition range start (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "acquisition range end (YYYY-MM-DD)")
	searchCmd.Flags().String("region", "", "region of interest as WKT")
	searchCmd.Flags().String("region-file", "", "file holding the region as WKT or GeoJSON")
	searchCmd.Flags().Bool("json", false, "print results as a GeoJSON FeatureCollection")
	searchCmd.Flags().String("save", "", "also write criteria and results to this YAML file")
	searchCmd.MarkFlagsMutuallyExclusive("region", "region-file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	criteria, err := searchCriteria(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	cfg := loadConfig()
	s, token, err := login(ctx, &cfg)
	if err != nil {
		return err
	}

	client := &catalog.Client{
		HTTP:      s.Client(),
		Endpoint:  cfg.Catalog.Endpoint,
		UserAgent: cfg.Catalog.UserAgent,
		Logger:    logger,
	}
	if cfg.Catalog.Authenticated {
		client.Token = token
	}

	records, err := client.Search(ctx, criteria)
	if err != nil {
		return err
	}
	results, err := normalize.Normalize(records)
	if err != nil {
		return err
	}

	m := metrics.New()
	m.ObserveSearch(results.Len())
	defer flushMetrics(cfg, m)

	store, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	searchID, err := store.RecordSearch(ctx, criteria, results)
	if err != nil {
		return err
	}
	logger.Debug("search recorded", "search_id", searchID)

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := catalog.WriteQueryFile(path, criteria, results.Records()); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "saved query to %s\n", path)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results.FeatureCollection())
	}
	renderResults(cmd.OutOrStdout(), results)
	return nil
}

func searchCriteria(cmd *cobra.Command) (types.SearchCriteria, error) {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	if from == "" || to == "" {
		return types.SearchCriteria{}, errors.New("both --from and --to are required")
	}
	start, err := time.Parse(types.DateLayout, from)
	if err != nil {
		return types.SearchCriteria{}, fmt.Errorf("invalid --from %q: %w", from, err)
	}
	end, err := time.Parse(types.DateLayout, to)
	if err != nil {
		return types.SearchCriteria{}, fmt.Errorf("invalid --to %q: %w", to, err)
	}

	region, _ := cmd.Flags().GetString("region")
	if file, _ := cmd.Flags().GetString("region-file"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return types.SearchCriteria{}, fmt.Errorf("reading region file: %w", err)
		}
		region = string(data)
	}
	if region == "" {
		return types.SearchCriteria{}, errors.New("provide --region or --region-file")
	}
	wkt, err := geometry.RegionWKT(region)
	if err != nil {
		return types.SearchCriteria{}, err
	}
	return types.NewSearchCriteria(start, end, wkt), nil
}

func renderResults(w io.Writer, results *normalize.ResultCollection) {
	if results.Len() == 0 {
		fmt.Fprintln(w, "no products found")
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "Product", "Start", "Size"})
	for i := 0; i < results.Len(); i++ {
		it := results.At(i)
		start := "-"
		if it.Record.StartDate != nil {
			start = it.Record.StartDate.Format("2006-01-02 15:04:05")
		}
		tw.AppendRow(table.Row{it.Ordinal, it.Record.ProductIdentifier, start, formatSize(it.Record.DownloadSize)})
	}
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d products", results.Len()), "", ""})
	tw.Render()
}
