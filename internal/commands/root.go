// Package commands implements firctl, the operator CLI for the record
// collections and the assistant.
package commands

import (
	"context"

	"github.com/spf13/cobra"
)

type runFunc func(cmd *cobra.Command, env *Env, args []string) error

// NewRootCmd builds the firctl command tree
func NewRootCmd(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:   "firctl",
		Short: "Operate the FIR desk record collections",
		Long: `firctl reads and maintains the drafts and reports collections offline,
using the same STORE_BACKEND configuration as the server.

Available subcommands:
  drafts   - List or delete draft reports
  reports  - List or export finalized reports
  ask      - Query the assistant
  snapshot - Write a snapshot of both collections`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	with := func(run runFunc) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			env, err := open(ctx)
			if err != nil {
				return err
			}
			if env.Close != nil {
				defer env.Close()
			}
			return run(cmd, env, args)
		}
	}

	root.AddCommand(
		newDraftsCmd(with),
		newReportsCmd(with),
		newAskCmd(with),
		newSnapshotCmd(with),
	)
	return root
}
