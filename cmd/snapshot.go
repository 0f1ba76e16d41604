package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	snapshotDescription string
	snapshotLimit       int
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage database snapshots",
	Long:  `Snapshots capture the canonical table so a bad sync cycle can be rolled back.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// snapshotCreateCmd represents the snapshot create command
var snapshotCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Capture a snapshot of the canonical table",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		feature, _, logg, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer logg.Sync()

		meta, err := feature.Service().CreateSnapshot(ctx, snapshotDescription)
		if err != nil {
			return err
		}
		printJSON(meta)
		return nil
	},
}

// snapshotListCmd represents the snapshot list command
var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		feature, _, logg, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer logg.Sync()

		metas, err := feature.Service().ListSnapshots(ctx, snapshotLimit)
		if err != nil {
			return err
		}
		printJSON(metas)
		return nil
	},
}

// snapshotRollbackCmd represents the snapshot rollback command
var snapshotRollbackCmd = &cobra.Command{
	Use:   "rollback <snapshot-id>",
	Short: "Restore the canonical table from a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		feature, _, logg, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer logg.Sync()

		result, err := feature.Service().Rollback(ctx, args[0])
		if err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}

		logg.Info("Rollback completed",
			zap.String("snapshot_id", result.SnapshotID),
			zap.Int("restored", result.RestoredCount))
		printJSON(result)
		return nil
	},
}

// snapshotDeleteCmd represents the snapshot delete command
var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete <snapshot-id>",
	Short: "Delete a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		feature, _, logg, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer logg.Sync()

		return feature.Service().DeleteSnapshot(ctx, args[0])
	},
}

// snapshotCleanupCmd represents the snapshot cleanup command
var snapshotCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete snapshots past the retention period",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		feature, _, logg, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer logg.Sync()

		removed, err := feature.Service().CleanupSnapshots(ctx)
		if err != nil {
			return err
		}
		logg.Info("Snapshot cleanup completed", zap.Int("removed", removed))
		return nil
	},
}

func init() {
	snapshotCreateCmd.Flags().StringVarP(&snapshotDescription, "description", "d", "", "description stored with the snapshot")
	snapshotListCmd.Flags().IntVar(&snapshotLimit, "limit", 20, "maximum number of snapshots to list")

	snapshotCmd.AddCommand(snapshotCreateCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotRollbackCmd)
	snapshotCmd.AddCommand(snapshotDeleteCmd)
	snapshotCmd.AddCommand(snapshotCleanupCmd)
	RootCmd.AddCommand(snapshotCmd)
}
