package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/d60-Lab/social-graph/internal/service"
)

var minAge = service.DefaultMinAge

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one dangling-reference repair pass and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		report, err := service.NewReconciler(a.store.Users, a.store.Thoughts, a.metrics, minAge).RunOnce(ctx)
		if err != nil {
			return fmt.Errorf("reconcile: %w", err)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	reconcileCmd.Flags().DurationVar(&minAge, "min-age", service.DefaultMinAge, "skip unlisted thoughts younger than this")
	rootCmd.AddCommand(reconcileCmd)
}
