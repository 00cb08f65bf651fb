package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cogniac/cogstats/internal/config"
	"github.com/cogniac/cogstats/internal/history"
	"github.com/cogniac/cogstats/internal/logger"
)

var historyFlags struct {
	tenantID  string
	gatewayID string
	limit     int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show locally recorded statistic snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer store.Close()
		logger.Debug("opened history database", "path", store.Path())

		snaps, err := store.Recent(cmd.Context(), historyFlags.tenantID, historyFlags.gatewayID, historyFlags.limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-20s %-24s %-20s %12s %16s %16s\n",
			"FETCHED", "GATEWAY ID", "NAME", "DETECTIONS", "MEDIA PIXELS", "GPU PIXELS")
		for _, snap := range snaps {
			fmt.Fprintf(out, "%-20s %-24s %-20s %12d %16.0f %16.0f\n",
				snap.FetchedAt.Local().Format(time.DateTime),
				snap.GatewayID, snap.Name,
				snap.ModelDetections, snap.MediaPixels, snap.GPUPixels)
		}
		return nil
	},
}

func init() {
	f := historyCmd.Flags()
	f.StringVarP(&historyFlags.tenantID, "tenant_id", "t", "", "tenant whose snapshots are shown (required)")
	f.StringVarP(&historyFlags.gatewayID, "gateway_id", "g", "", "restrict to one EdgeFlow")
	f.IntVarP(&historyFlags.limit, "limit", "n", 20, "maximum snapshots to show")
	cobra.CheckErr(historyCmd.MarkFlagRequired("tenant_id"))
}
