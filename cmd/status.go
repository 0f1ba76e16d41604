package cmd

import (
	"github.com/spf13/cobra"
)

var historyLimit int

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync state, quota usage, and target health",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		feature, _, logg, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer logg.Sync()

		report, err := feature.Service().Status(ctx)
		if err != nil {
			return err
		}
		printJSON(report)
		return nil
	},
}

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sync cycle outcomes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		feature, _, logg, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer logg.Sync()

		logs, err := feature.Service().History(ctx, historyLimit)
		if err != nil {
			return err
		}
		printJSON(logs)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of cycles to show")
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(historyCmd)
}
