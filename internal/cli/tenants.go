package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cogniac/cogstats/internal/cogniac"
	"github.com/cogniac/cogstats/internal/config"
)

var tenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "List the tenants the configured credentials may access",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		tenants, err := cogniac.AuthorizedTenants(cmd.Context(), cfg.Credentials(), cogniac.Options{
			URLPrefix: cfg.URLPrefix,
			Timeout:   cfg.Timeout,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, tenant := range tenants {
			fmt.Fprintf(out, "%-32s %s\n", tenant.Name, tenant.TenantID)
		}
		return nil
	},
}
