package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cogniac/cogstats/internal/cogniac"
	"github.com/cogniac/cogstats/internal/config"
	"github.com/cogniac/cogstats/internal/history"
	"github.com/cogniac/cogstats/internal/logger"
	"github.com/cogniac/cogstats/internal/watch"
)

var watchFlags struct {
	tenantID       string
	gatewayID      string
	interval       time.Duration
	alertThreshold int64
	noHistory      bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard of EdgeFlow detection statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		interval := watchFlags.interval
		if !cmd.Flags().Changed("interval") {
			interval = cfg.RefreshInterval
		}
		threshold := watchFlags.alertThreshold
		if !cmd.Flags().Changed("alert-threshold") {
			threshold = cfg.AlertThreshold
		}

		client, err := cogniac.Connect(cmd.Context(), cfg.Credentials(), watchFlags.tenantID, cogniac.Options{
			URLPrefix: cfg.URLPrefix,
			Timeout:   cfg.Timeout,
		})
		if err != nil {
			return err
		}

		tenantName := watchFlags.tenantID
		if tenant, err := client.Tenant(cmd.Context()); err == nil && tenant.Name != "" {
			tenantName = tenant.Name
		} else if err != nil {
			logger.Debug("failed to resolve tenant name", "error", err)
		}

		var store *history.DB
		if !watchFlags.noHistory {
			store, err = history.Open(cfg.HistoryPath)
			if err != nil {
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

		var envEvents <-chan struct{}
		if cfg.EnvFile != "" {
			watcher, err := config.WatchFile(cfg.EnvFile)
			if err != nil {
				logger.Warn("env file watch disabled", "path", cfg.EnvFile, "error", err)
			} else {
				envEvents = watcher.Events()
				defer func() {
					if err := watcher.Close(); err != nil {
						logger.Error("failed to close env watcher", "error", err)
					}
				}()
			}
		}

		model := watch.New(cmd.Context(), client, store, watch.Options{
			TenantID:       watchFlags.tenantID,
			TenantName:     tenantName,
			GatewayID:      watchFlags.gatewayID,
			Interval:       interval,
			AlertThreshold: threshold,
		}, envEvents)

		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running dashboard: %w", err)
		}
		return nil
	},
}

func init() {
	f := watchCmd.Flags()
	f.StringVarP(&watchFlags.tenantID, "tenant_id", "t", "", "tenant whose EdgeFlows are watched (required)")
	f.StringVarP(&watchFlags.gatewayID, "gateway_id", "g", "", "watch a single EdgeFlow")
	f.DurationVar(&watchFlags.interval, "interval", 30*time.Second, "poll interval")
	f.Int64Var(&watchFlags.alertThreshold, "alert-threshold", 0, "notify when detections grow by at least this much per poll (0 disables)")
	f.BoolVar(&watchFlags.noHistory, "no-history", false, "do not record snapshots to the local history database")
	cobra.CheckErr(watchCmd.MarkFlagRequired("tenant_id"))
}
