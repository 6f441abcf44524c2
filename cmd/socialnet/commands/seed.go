package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/d60-Lab/social-graph/internal/service"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace all data with the demo users, thoughts and reactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		res, err := service.Seed(ctx, a.store, a.users, a.thoughts)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d thoughts, %d reactions\n", res.Users, res.Thoughts, res.Reactions)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
