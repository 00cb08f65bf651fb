package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cogniac/cogstats/internal/cogniac"
	"github.com/cogniac/cogstats/internal/config"
	"github.com/cogniac/cogstats/internal/history"
	"github.com/cogniac/cogstats/internal/logger"
	"github.com/cogniac/cogstats/internal/report"
)

var reportFlags struct {
	tenantID  string
	gatewayID string
	start     float64
	end       float64
	keepGoing bool
	noHistory bool
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Distinguish "zero" from "not given": absent bounds are left to the
	// service's defaults.
	var start, end *float64
	if cmd.Flags().Changed("start_timestamp") {
		start = &reportFlags.start
	}
	if cmd.Flags().Changed("end_timestamp") {
		end = &reportFlags.end
	}

	ctx := cmd.Context()
	client, err := cogniac.Connect(ctx, cfg.Credentials(), reportFlags.tenantID, cogniac.Options{
		URLPrefix: cfg.URLPrefix,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return err
	}

	var edgeflows []*cogniac.EdgeFlow
	if reportFlags.gatewayID != "" {
		ef, err := client.EdgeFlow(ctx, reportFlags.gatewayID)
		if err != nil {
			return err
		}
		edgeflows = []*cogniac.EdgeFlow{ef}
	} else {
		edgeflows, err = client.EdgeFlows(ctx)
		if err != nil {
			return err
		}
	}

	var store *history.DB
	if !reportFlags.noHistory {
		store, err = history.Open(cfg.HistoryPath)
		if err != nil {
			// History is a convenience; a broken local database must not
			// block the report.
			logger.Warn("history disabled", "path", cfg.HistoryPath, "error", err)
			store = nil
		} else {
			defer func() {
				if err := store.Close(); err != nil {
					logger.Error("failed to close history database", "error", err)
				}
			}()
		}
	}

	out := cmd.OutOrStdout()
	var failed []*cogniac.EdgeFlow
	for _, ef := range edgeflows {
		stats, err := ef.AggregatedStats(ctx, start, end)
		if err != nil {
			if !reportFlags.keepGoing {
				return err
			}
			failed = append(failed, ef)
			fmt.Fprintf(cmd.ErrOrStderr(), "cogstats: %s: %v\n", ef, err)
			continue
		}

		report.Render(out, ef, stats)

		if store != nil {
			snap := history.NewSnapshot(reportFlags.tenantID, ef, stats)
			if err := store.RecordSnapshot(ctx, snap); err != nil {
				logger.Warn("failed to record snapshot", "gateway_id", ef.GatewayID, "error", err)
			}
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d edgeflows failed", len(failed), len(edgeflows))
	}
	return nil
}
