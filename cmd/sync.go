package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"broker-office/feature/seller"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var forceRefreshFlag bool

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sheet-to-store sync cycle",
	Long:  `Fetches the spreadsheet, diffs it against the last known state, and applies the changes to the database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		feature, _, logg, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer logg.Sync()

		result, err := feature.Service().Sync(ctx, seller.TriggerManual, forceRefreshFlag)
		if err != nil {
			// A failed cycle still carries a result worth showing.
			if result != nil {
				printJSON(result)
			}
			return err
		}

		logg.Info("Sync cycle finished",
			zap.String("status", string(result.Status)),
			zap.Int("added", result.RecordsAdded),
			zap.Int("updated", result.RecordsUpdated),
			zap.Int("deleted", result.RecordsDeleted),
			zap.Int("errors", len(result.Errors)))
		printJSON(result)
		return nil
	},
}

// exportCmd represents the sync export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run one store-to-sheet export cycle",
	Long:  `Pushes the canonical database records back to the spreadsheet: appends, updates, and row deletions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		feature, _, logg, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer logg.Sync()

		result, err := feature.Service().Export(ctx, seller.TriggerManual)
		if err != nil {
			if result != nil {
				printJSON(result)
			}
			return err
		}
		printJSON(result)
		return nil
	},
}

func printJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func init() {
	syncCmd.Flags().BoolVar(&forceRefreshFlag, "force-refresh", false, "rebuild the diff baseline from the database before diffing")
	syncCmd.AddCommand(exportCmd)
	RootCmd.AddCommand(syncCmd)
}
