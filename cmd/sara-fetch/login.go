// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check SARA credentials",
	Long: `Login exchanges the configured credentials for a bearer token. The token
is printed only with --print-token; other commands log in on their own.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().Bool("print-token", false, "print the bearer token to stdout")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	_, token, err := login(cmd.Context(), &cfg)
	if err != nil {
		return err
	}
	if show, _ := cmd.Flags().GetBool("print-token"); show {
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", cfg.Auth.Username)
	return nil
}
