package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"firdesk/internal/export"
	"firdesk/internal/models"
	"firdesk/internal/services"

	"github.com/spf13/cobra"
)

type wrapper func(run runFunc) func(*cobra.Command, []string) error

func newDraftsCmd(with wrapper) *cobra.Command {
	draftsCmd := &cobra.Command{
		Use:   "drafts",
		Short: "List or delete draft reports",
	}

	var asJSON bool
	var query string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List drafts in insertion order",
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, env *Env, args []string) error {
			return printRecords(cmd.OutOrStdout(), search(cmd, env.Drafts, query), asJSON)
		}),
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "print the collection as JSON")
	listCmd.Flags().StringVarP(&query, "query", "q", "", "only records whose firNumber or complainant name contains this")

	deleteCmd := &cobra.Command{
		Use:   "delete <firNumber>",
		Short: "Delete every draft with the given firNumber",
		Args:  cobra.ExactArgs(1),
		RunE: with(func(cmd *cobra.Command, env *Env, args []string) error {
			err := env.Drafts.DeleteByID(cmd.Context(), args[0])
			if errors.Is(err, services.ErrNotFound) {
				return fmt.Errorf("draft %s not found", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted draft %s\n", args[0])
			return nil
		}),
	}

	draftsCmd.AddCommand(listCmd, deleteCmd)
	return draftsCmd
}

func newReportsCmd(with wrapper) *cobra.Command {
	reportsCmd := &cobra.Command{
		Use:   "reports",
		Short: "List or export finalized reports",
	}

	var asJSON bool
	var query string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List reports in insertion order",
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, env *Env, args []string) error {
			return printRecords(cmd.OutOrStdout(), search(cmd, env.Reports, query), asJSON)
		}),
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "print the collection as JSON")
	listCmd.Flags().StringVarP(&query, "query", "q", "", "only records whose firNumber or complainant name contains this")

	exportCmd := &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Write every report to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: with(func(cmd *cobra.Command, env *Env, args []string) error {
			reports := env.Reports.ListAll(cmd.Context())

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", args[0], err)
			}
			if err := export.WriteXLSX(f, reports); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📄 Exported %d reports to %s\n", len(reports), args[0])
			return nil
		}),
	}

	reportsCmd.AddCommand(listCmd, exportCmd)
	return reportsCmd
}

func search(cmd *cobra.Command, svc *services.CollectionService, query string) []models.Report {
	if query != "" {
		return svc.Search(cmd.Context(), query)
	}
	return svc.ListAll(cmd.Context())
}

func printRecords(w io.Writer, records []models.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No records.")
		return nil
	}
	fmt.Fprintf(w, "%-24s %-20s %-18s %s\n", "FIR NUMBER", "DATE/TIME", "CATEGORY", "COMPLAINANT")
	for _, r := range records {
		fmt.Fprintf(w, "%-24s %-20s %-18s %s\n", r.FIRNumber, r.DateTime, r.Kind(), r.Complainant.Name)
	}
	fmt.Fprintf(w, "%d records\n", len(records))
	return nil
}
