package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"shipments/internal/cli"
	"shipments/internal/client"
)

const defaultServer = "http://localhost:8081"

type rootOptions struct {
	server  string
	timeout time.Duration
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.server, o.timeout)
}

func newRootCmd() *cobra.Command {
	cli.LoadEnvFile()

	opts := &rootOptions{}
	server := os.Getenv("SHIPMENTS_SERVER")
	if server == "" {
		server = defaultServer
	}

	cmd := &cobra.Command{
		Use:           "shipmentsctl",
		Short:         "Record and inspect vegetable shipment forecasts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.server, "server", server, "shipments server URL (env SHIPMENTS_SERVER)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "request timeout")

	cmd.AddCommand(
		newInitCmd(),
		newRecordCmd(opts),
		newListCmd(opts),
		newSummaryCmd(opts),
	)
	return cmd
}
