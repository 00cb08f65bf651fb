// Package cli defines the cogstats command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cogniac/cogstats/internal/logger"
	"github.com/cogniac/cogstats/internal/version"
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:   "cogstats -t TENANT_ID [-g GATEWAY_ID] [-s START_TIMESTAMP] [-e END_TIMESTAMP]",
	Short: "Detection statistics reports for Cogniac EdgeFlows",
	Long: `cogstats fetches aggregated detection statistics for the EdgeFlows of a
Cogniac tenant and prints a report to standard output.

Credentials are read from COG_API_KEY or COG_USER/COG_PASS (optionally via a
.env file); COG_URL_PREFIX selects an on-prem API endpoint.`,
	Args:         cobra.NoArgs,
	Version:      version.Info(),
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(flagVerbose)
	},
	RunE: runReport,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")

	f := rootCmd.Flags()
	f.StringVarP(&reportFlags.tenantID, "tenant_id", "t", "", "tenant whose EdgeFlows are reported (required)")
	f.StringVarP(&reportFlags.gatewayID, "gateway_id", "g", "", "restrict the report to one EdgeFlow")
	f.Float64VarP(&reportFlags.start, "start_timestamp", "s", 0, "aggregation window lower bound (epoch seconds)")
	f.Float64VarP(&reportFlags.end, "end_timestamp", "e", 0, "aggregation window upper bound (epoch seconds)")
	f.BoolVar(&reportFlags.keepGoing, "keep-going", false, "report remaining EdgeFlows when one fails")
	f.BoolVar(&reportFlags.noHistory, "no-history", false, "do not record snapshots to the local history database")
	cobra.CheckErr(rootCmd.MarkFlagRequired("tenant_id"))

	rootCmd.AddCommand(edgeflowsCmd, tenantsCmd, historyCmd, watchCmd)
}
