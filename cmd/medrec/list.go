// ABOUTME: CLI commands for listing and showing medical records.
// ABOUTME: Lists newest first with optional case-insensitive search.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/medrec/internal/analysis"
)

var (
	listSearch string
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List medical records",
	Long: `List the acting account's medical records, newest first.

OUTPUT FORMAT:

  Each line shows: ID  DATE  PATIENT  AGE  BP  CHOLESTEROL  (FLAGS)

  Undated records come last. Records with equal dates are ordered by
  descending ID.

SEARCH:

  --search matches the patient name or notes, ignoring case.

EXAMPLES:

  medrec list
  medrec list --search doe
  medrec list -n 5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := actingUser()
		if err != nil {
			return err
		}

		list, err := recordStore().List(owner.ID, listSearch)
		if err != nil {
			return fmt.Errorf("failed to list records: %w", err)
		}
		if listLimit > 0 && len(list) > listLimit {
			list = list[:listLimit]
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No records found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, r := range list {
			fmt.Fprintf(out, "%s %s %s %s %s %s%s\n",
				faint.Sprint(padRight(fmt.Sprint(r.ID), 5)),
				faint.Sprint(dateOrDash(r.Date)),
				padRight(truncate(r.PatientName, 24), 24),
				padRight(fmt.Sprint(r.Age), 4),
				padRight(orDash(r.BloodPressure), 8),
				padRight(cholText(r.Cholesterol), 11),
				flagSuffix(analysis.Assess(r)))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one medical record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		owner, err := actingUser()
		if err != nil {
			return err
		}

		r, err := recordStore().Get(owner.ID, id)
		if err != nil {
			return recordErr(id, err)
		}

		out := cmd.OutOrStdout()
		bold := color.New(color.Bold)
		faint := color.New(color.Faint)

		bold.Fprintf(out, "%s\n", r.PatientName)
		fmt.Fprintf(out, "  %s %d\n", faint.Sprint("ID:          "), r.ID)
		fmt.Fprintf(out, "  %s %d\n", faint.Sprint("Age:         "), r.Age)
		fmt.Fprintf(out, "  %s %s\n", faint.Sprint("Date:        "), dateOrDash(r.Date))
		fmt.Fprintf(out, "  %s %s\n", faint.Sprint("Blood press.:"), orDash(r.BloodPressure))
		fmt.Fprintf(out, "  %s %s\n", faint.Sprint("Cholesterol: "), cholText(r.Cholesterol))
		if r.Notes != nil {
			fmt.Fprintf(out, "  %s %s\n", faint.Sprint("Notes:       "), *r.Notes)
		}

		flags := analysis.Assess(r)
		if len(flags) == 0 {
			color.New(color.FgGreen).Fprintln(out, "  No high-risk indicators detected")
			return nil
		}
		for _, f := range flags {
			color.New(color.FgRed).Fprintf(out, "  ⚠ %s\n", f)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "filter by patient name or notes")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "max number of results (0 for all)")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
}
