package commands

import (
	"fmt"
	"sort"

	"github.com/audit-tools/fee-atlas/pkg/services/config"
	"github.com/spf13/cobra"
)

// NewEstimateCmd projects the AI cost of analyzing a statement.
func NewEstimateCmd() *cobra.Command {
	var (
		cfgPath string
		txCount int
		modules []string
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the AI cost of an analysis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			router, err := cfg.BuildRouter()
			if err != nil {
				return fmt.Errorf("failed to configure AI providers: %w", err)
			}
			if router == nil {
				return fmt.Errorf("no AI provider enabled in %s", cfgPath)
			}

			est := router.EstimateCost(modules, txCount)

			out := cmd.OutOrStdout()
			ids := make([]string, 0, len(est.ByModule))
			for id := range est.ByModule {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Fprintf(out, "%-16s $%.4f\n", id, est.ByModule[id])
			}
			fmt.Fprintf(out, "\nTotal: $%.4f (%d tokens, %d transactions)\n",
				est.TotalUSD, est.TotalToks, txCount)
			return nil
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to the engine config file")
	cmd.Flags().IntVarP(&txCount, "transactions", "n", 0, "Number of statement lines")
	cmd.Flags().StringSliceVar(&modules, "modules", nil, "AI modules to estimate (default all)")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("transactions")

	return cmd
}
