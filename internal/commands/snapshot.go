package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSnapshotCmd(with wrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Write a snapshot of both collections to SNAPSHOT_DIR",
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, env *Env, args []string) error {
			if err := env.Snapshot.Run(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "📦 Snapshot written")
			return nil
		}),
	}
}
