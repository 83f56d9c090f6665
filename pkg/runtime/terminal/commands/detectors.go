package commands

import (
	"fmt"

	"github.com/audit-tools/fee-atlas/pkg/services/detect"
	"github.com/spf13/cobra"
)

// NewDetectorsCmd lists the registered detection modules.
func NewDetectorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detectors",
		Short: "List the available detection modules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry := detect.DefaultRegistry()
			for _, d := range registry.Enabled(nil) {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", d.ID(), d.Label()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
