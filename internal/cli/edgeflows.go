package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cogniac/cogstats/internal/cogniac"
	"github.com/cogniac/cogstats/internal/config"
)

var edgeflowsFlags struct {
	tenantID string
	ping     bool
}

var edgeflowsCmd = &cobra.Command{
	Use:   "edgeflows",
	Short: "List the tenant's EdgeFlows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx := cmd.Context()
		client, err := cogniac.Connect(ctx, cfg.Credentials(), edgeflowsFlags.tenantID, cogniac.Options{
			URLPrefix: cfg.URLPrefix,
			Timeout:   cfg.Timeout,
		})
		if err != nil {
			return err
		}

		edgeflows, err := client.EdgeFlows(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if edgeflowsFlags.ping {
			fmt.Fprintf(out, "%-28s %-24s %-12s %-10s %s\n", "NAME", "GATEWAY ID", "MODEL", "VERSION", "PING")
			for _, ef := range edgeflows {
				status := "ok"
				if err := ef.Ping(ctx); err != nil {
					status = err.Error()
				}
				fmt.Fprintf(out, "%-28s %-24s %-12s %-10s %s\n", ef.Name, ef.GatewayID, ef.Model, ef.SoftwareVersion, status)
			}
			return nil
		}

		fmt.Fprintf(out, "%-28s %-24s %-12s %s\n", "NAME", "GATEWAY ID", "MODEL", "VERSION")
		for _, ef := range edgeflows {
			fmt.Fprintf(out, "%-28s %-24s %-12s %s\n", ef.Name, ef.GatewayID, ef.Model, ef.SoftwareVersion)
		}
		return nil
	},
}

func init() {
	f := edgeflowsCmd.Flags()
	f.StringVarP(&edgeflowsFlags.tenantID, "tenant_id", "t", "", "tenant whose EdgeFlows are listed (required)")
	f.BoolVar(&edgeflowsFlags.ping, "ping", false, "send an event ping to each EdgeFlow and report the result")
	cobra.CheckErr(edgeflowsCmd.MarkFlagRequired("tenant_id"))
}
