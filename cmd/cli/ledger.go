package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iho/timebank/internal/adapter/http/dto"
)

func ledgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	var limit, offset int
	history := &cobra.Command{
		Use:   "history <account-id>",
		Short: "List an account's ledger entries, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newAPIClient(opts)
			q := url.Values{}
			q.Set("limit", fmt.Sprint(limit))
			q.Set("offset", fmt.Sprint(offset))

			var page dto.HistoryResponse
			path := "/api/v1/accounts/" + url.PathEscape(args[0]) + "/entries?" + q.Encode()
			if err := c.do(cmd.Context(), http.MethodGet, path, nil, &page); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts, c, func(w io.Writer) {
				printHistory(w, &page)
			})
		},
	}
	history.Flags().IntVar(&limit, "limit", 20, "Entries per page")
	history.Flags().IntVar(&offset, "offset", 0, "Entries to skip")
	cmd.AddCommand(history)

	cmd.AddCommand(&cobra.Command{
		Use:   "verify <account-id>",
		Short: "Recompute an account's balance from its ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newAPIClient(opts)
			var report dto.IntegrityResponse
			err := c.do(cmd.Context(), http.MethodGet, "/api/v1/accounts/"+url.PathEscape(args[0])+"/integrity", nil, &report)

			// A fault comes back as a 500 with the report as its body.
			var apiErr *apiError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusInternalServerError &&
				json.Unmarshal(c.raw, &report) == nil && report.AccountID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Integrity check FAILED for %s\n", report.AccountID)
				fmt.Fprintf(cmd.OutOrStdout(), "Cached balance %sh, ledger says %sh (difference %sh)\n",
					report.CachedBalance, report.ComputedBalance, report.Difference)
				return fmt.Errorf("ledger integrity fault on account %s", report.AccountID)
			}
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), opts, c, func(w io.Writer) {
				fmt.Fprintf(w, "Integrity check PASSED for %s\n", report.AccountID)
				fmt.Fprintf(w, "Balance: %sh (credits %sh, debits %sh)\n", report.CachedBalance, report.TotalCredits, report.TotalDebits)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reconcile",
		Short: "Verify every account and the exchange totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newAPIClient(opts)
			var report dto.ReconciliationResponse
			if err := c.do(cmd.Context(), http.MethodGet, "/api/v1/ledger/reconciliation", nil, &report); err != nil {
				return err
			}
			if err := render(cmd.OutOrStdout(), opts, c, func(w io.Writer) {
				printReconciliation(w, &report)
			}); err != nil {
				return err
			}
			if !report.OK {
				return errors.New("reconciliation FAILED")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "spend-check <account-id> <hours>",
		Short: "Preview whether the account may spend hours",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newAPIClient(opts)
			var d dto.SpendDecisionResponse
			path := "/api/v1/accounts/" + url.PathEscape(args[0]) + "/spend-check?hours=" + url.QueryEscape(args[1])
			if err := c.do(cmd.Context(), http.MethodGet, path, nil, &d); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts, c, func(w io.Writer) {
				verdict := "allowed"
				if !d.Allowed {
					verdict = "refused"
				} else if d.Warning {
					verdict = "allowed with warning"
				}
				fmt.Fprintf(w, "Spending %sh from %sh: %s (debt %sh of %sh)\n", d.Amount, d.Balance, verdict, d.Debt, d.Limit)
				if d.Message != "" {
					fmt.Fprintln(w, d.Message)
				}
			})
		},
	})

	return cmd
}

func printHistory(w io.Writer, page *dto.HistoryResponse) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tDEBIT\tCREDIT\tBALANCE\tDESCRIPTION")
	for _, e := range page.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.Type, e.Debit, e.Credit, e.RunningBalance, truncate(e.Description, 40))
	}
	tw.Flush()
	fmt.Fprintf(w, "%d of %d entries\n", len(page.Entries), page.Total)
}

func printReconciliation(w io.Writer, r *dto.ReconciliationResponse) {
	status := "PASSED"
	if !r.OK {
		status = "FAILED"
	}
	fmt.Fprintf(w, "Reconciliation %s\n", status)
	fmt.Fprintf(w, "Accounts: %d reconciled of %d\n", r.ReconciledAccounts, r.TotalAccounts)
	fmt.Fprintf(w, "Exchange credits %sh, debits %sh (consistent: %v)\n", r.ExchangeCredits, r.ExchangeDebits, r.LedgerConsistent)
	for _, d := range r.Discrepancies {
		fmt.Fprintf(w, "  %s: cached %sh, ledger %sh\n", d.AccountID, d.CachedBalance, d.ComputedBalance)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
