package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"shipments/internal/api"
	"shipments/internal/backend"
	"shipments/internal/cli"
	"shipments/internal/config"
	"shipments/internal/core"
	"shipments/internal/log"
)

// newInitCmd prepares the configured backend directly, without the server.
func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configured record store if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := cli.SetupLogger(cfg.LogLevel)
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			backendCfg, err := backend.FromAppConfig(cfg)
			if err != nil {
				return err
			}
			result, err := backend.NewFactory(log.Named(logger, log.ComponentCLI)).CreateBackend(ctx, backendCfg)
			if err != nil {
				return err
			}
			defer func() { _ = result.Close() }()

			if err := result.Store.EnsureInitialized(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s store ready\n", cfg.DataBackend)
			return nil
		},
	}
}

func newRecordCmd(opts *rootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:     "record STAFF VEGETABLE QUANTITY",
		Short:   "Record one shipment forecast",
		Example: `  shipmentsctl record "Staff 3" Tomato 12.5 --date 2026-01-31`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := decimal.NewFromString(args[2])
			if err != nil {
				return fmt.Errorf("quantity %q is not a number", args[2])
			}
			if date == "" {
				date = core.DateOf(time.Now()).String()
			}
			stored, err := opts.client().Record(cmd.Context(), api.CreateShipmentRequest{
				ShipmentDate: date,
				StaffName:    args[0],
				Vegetable:    args[1],
				Quantity:     q,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %s %s for %s by %s at %s\n",
				stored.Quantity, stored.Vegetable, stored.ShipmentDate, stored.StaffName, stored.RecordedAt)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "shipment date YYYY-MM-DD (default today)")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded shipments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter *core.Date
			if date != "" {
				d, err := core.ParseDate(date)
				if err != nil {
					return err
				}
				filter = &d
			}
			list, err := opts.client().List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			writeShipments(cmd.OutOrStdout(), list.Shipments)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "only shipments of this date")
	return cmd
}

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show per-vegetable totals for one shipment date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var d core.Date
			if date != "" {
				var err error
				if d, err = core.ParseDate(date); err != nil {
					return err
				}
			}
			sum, err := opts.client().Summary(cmd.Context(), d)
			if err != nil {
				return err
			}
			writeSummary(cmd.OutOrStdout(), sum)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "shipment date YYYY-MM-DD (default today)")
	return cmd
}

func writeShipments(out io.Writer, shipments []api.Shipment) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tSTAFF\tVEGETABLE\tQUANTITY\tRECORDED AT")
	for _, s := range shipments {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ShipmentDate, s.StaffName, s.Vegetable, s.Quantity, s.RecordedAt)
	}
	_ = tw.Flush()
}

func writeSummary(out io.Writer, sum api.Summary) {
	switch {
	case sum.DatasetSize == 0:
		fmt.Fprintln(out, "No shipments recorded yet.")
		return
	case len(sum.Totals) == 0:
		fmt.Fprintf(out, "No shipments for %s.\n", sum.Date)
		return
	}

	fmt.Fprintf(out, "Shipments for %s\n\n", sum.Date)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VEGETABLE\tQUANTITY")
	for _, t := range sum.Totals {
		fmt.Fprintf(tw, "%s\t%s\n", t.Vegetable, t.Quantity)
	}
	fmt.Fprintf(tw, "TOTAL\t%s\n", sum.Total)
	_ = tw.Flush()

	fmt.Fprintln(out)
	writeShipments(out, sum.Shipments)
}
