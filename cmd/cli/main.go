package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type options struct {
	baseURL string
	actor   string
	timeout time.Duration
	json    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "timebank-cli",
		Short:         "TimeBank CLI tool",
		Long:          `A command line interface for the TimeBank exchange API and its database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("TIMEBANK_URL", "http://localhost:8080"), "Base URL of the TimeBank API")
	rootCmd.PersistentFlags().StringVar(&opts.actor, "as", os.Getenv("TIMEBANK_ACCOUNT"), "Account ID to act as (sent as X-Account-ID)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Print raw JSON responses")

	rootCmd.AddCommand(
		accountCmd(opts),
		listingCmd(opts),
		exchangeCmd(opts),
		ledgerCmd(opts),
		migrateCmd(),
	)

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
