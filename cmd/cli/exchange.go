package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iho/timebank/internal/adapter/http/dto"
)

func accountCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "open <display-name>",
		Short: "Open an account seeded with the initial credit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newAPIClient(opts)
			var account dto.AccountResponse
			if err := c.do(cmd.Context(), http.MethodPost, "/api/v1/accounts/", dto.OpenAccountRequest{DisplayName: args[0]}, &account); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts, c, func(w io.Writer) {
				printAccount(w, &account)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <account-id>",
		Short: "Show an account and its cached balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newAPIClient(opts)
			var account dto.AccountResponse
			if err := c.do(cmd.Context(), http.MethodGet, "/api/v1/accounts/"+url.PathEscape(args[0]), nil, &account); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts, c, func(w io.Writer) {
				printAccount(w, &account)
			})
		},
	})

	return cmd
}

func printAccount(w io.Writer, a *dto.AccountResponse) {
	fmt.Fprintf(w, "Account %s (%s)\nBalance: %sh\n", a.ID, a.DisplayName, a.Balance)
}

func listingCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listing",
		Short: "Listing operations",
	}

	var (
		kind     string
		capacity int
	)
	create := &cobra.Command{
		Use:   "create <title>",
		Short: "Publish a listing as the acting account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newAPIClient(opts)
			if err := c.requireActor(); err != nil {
				return err
			}
			req := dto.RegisterListingRequest{Kind: kind, Title: args[0], Capacity: capacity}
			var listing dto.ListingResponse
			if err := c.do(cmd.Context(), http.MethodPost, "/api/v1/listings/", req, &listing); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts, c, func(w io.Writer) {
				fmt.Fprintf(w, "Listing %s (%s, capacity %d) is %s\n", listing.ID, listing.Kind, listing.Capacity, listing.Status)
			})
		},
	}
	create.Flags().StringVar(&kind, "kind", "REQUEST", "REQUEST or OFFER")
	create.Flags().IntVar(&capacity, "capacity", 1, "Number of helpers the listing takes")
	cmd.AddCommand(create)

	return cmd
}

func exchangeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Drive a participation through its lifecycle",
	}

	var message string
	propose := &cobra.Command{
		Use:   "propose <listing-id>",
		Short: "Offer to take part in a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return participationCall(cmd, opts, "/api/v1/listings/"+url.PathEscape(args[0])+"/participations",
				dto.ProposeRequest{Message: message})
		},
	}
	propose.Flags().StringVar(&message, "message", "", "Message for the listing creator")
	cmd.AddCommand(propose)

	cmd.AddCommand(&cobra.Command{
		Use:   "accept <participation-id> <hours>",
		Short: "Accept a proposal and fix the hours to settle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.ParseFloat(args[1], 64); err != nil {
				return fmt.Errorf("invalid hours %q", args[1])
			}
			return participationCall(cmd, opts, "/api/v1/participations/"+url.PathEscape(args[0])+"/accept",
				map[string]string{"hours": args[1]})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "decline <participation-id>",
		Short: "Decline a proposal, or withdraw your own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return participationCall(cmd, opts, "/api/v1/participations/"+url.PathEscape(args[0])+"/decline", nil)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "confirm <participation-id>",
		Short: "Confirm the exchange happened; the second confirmation settles it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newAPIClient(opts)
			if err := c.requireActor(); err != nil {
				return err
			}
			var resp dto.ConfirmResponse
			if err := c.do(cmd.Context(), http.MethodPost, "/api/v1/participations/"+url.PathEscape(args[0])+"/confirm", nil, &resp); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts, c, func(w io.Writer) {
				printConfirm(w, &resp)
			})
		},
	})

	return cmd
}

func participationCall(cmd *cobra.Command, opts *options, path string, body any) error {
	c := newAPIClient(opts)
	if err := c.requireActor(); err != nil {
		return err
	}
	var p dto.ParticipationResponse
	if err := c.do(cmd.Context(), http.MethodPost, path, body, &p); err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), opts, c, func(w io.Writer) {
		fmt.Fprintf(w, "Participation %s is %s (%sh)\n", p.ID, p.Status, p.Hours)
	})
}

func printConfirm(w io.Writer, resp *dto.ConfirmResponse) {
	s := resp.Settlement
	if s == nil {
		fmt.Fprintf(w, "Participation %s: %s\n", resp.Participation.ID, resp.Status)
		return
	}

	fmt.Fprintf(w, "Participation %s settled: %sh from %s to %s (transfer %s)\n",
		resp.Participation.ID, s.Hours, s.RequesterID, s.ProviderID, s.TransferID)
	fmt.Fprintf(w, "Provider balance:  %sh\nRequester balance: %sh\n", s.ProviderBalance, s.RequesterBalance)
	if s.Warning != "" {
		fmt.Fprintf(w, "Warning: %s\n", s.Warning)
	}
}

// render prints the raw JSON body under --json and the summary otherwise.
func render(w io.Writer, opts *options, c *apiClient, summary func(io.Writer)) error {
	if opts.json {
		return c.printRaw(w)
	}
	summary(w)
	return nil
}
