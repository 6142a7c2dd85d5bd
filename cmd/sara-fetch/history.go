// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pdiddy/sara-fetch/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent transfers",
	Long:  `History prints transfer attempts recorded in the ledger, newest first.`,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of transfers to list (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openLedger(loadConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Transfers(cmd.Context(), limit)
	if err != nil {
		return err
	}
	renderHistory(cmd.OutOrStdout(), records)
	return nil
}

func renderHistory(w io.Writer, records []ledger.TransferRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "no transfers recorded")
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"When", "Product", "Status", "Written", "Expected", "Took"})
	for _, r := range records {
		status := r.Status
		if r.Error != "" {
			status += ": " + r.Error
		}
		tw.AppendRow(table.Row{
			r.FinishedAt.Local().Format("2006-01-02 15:04"),
			r.ProductIdentifier,
			status,
			formatSize(r.BytesWritten),
			formatSize(r.ExpectedBytes),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
		})
	}
	tw.Render()
}
