// ABOUTME: CLI commands for dashboard statistics and risk analysis.
// ABOUTME: Prints tables by default or JSON with --json.
package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/medrec/internal/analysis"
)

var reportJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard statistics",
	Long: `Show the dashboard summary for the acting account.

  Total records, average age, average cholesterol (over records that have
  one), how many have cholesterol above 200, and how many have a systolic
  reading above 140.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := actingUser()
		if err != nil {
			return err
		}
		snapshot, err := recordStore().Snapshot(owner.ID)
		if err != nil {
			return fmt.Errorf("failed to load records: %w", err)
		}

		stats := analysis.ComputeStats(snapshot)
		out := cmd.OutOrStdout()
		if reportJSON {
			return writeIndented(out, stats)
		}

		faint := color.New(color.Faint)
		fmt.Fprintf(out, "%s %d\n", faint.Sprint("Total records:        "), stats.TotalRecords)
		fmt.Fprintf(out, "%s %s\n", faint.Sprint("Average age:          "), formatMean(stats.AvgAge))
		fmt.Fprintf(out, "%s %s\n", faint.Sprint("Average cholesterol:  "), formatMean(stats.AvgCholesterol))
		fmt.Fprintf(out, "%s %d\n", faint.Sprint("High cholesterol:     "), stats.HighCholesterolCount)
		fmt.Fprintf(out, "%s %d\n", faint.Sprint("High blood pressure:  "), stats.HighBPCount)
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Show aggregate stats and flagged records",
	Long: `Analyze the acting account's records.

Prints average age, cholesterol average/min/max and every record with at
least one risk flag, newest first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := actingUser()
		if err != nil {
			return err
		}
		snapshot, err := recordStore().Snapshot(owner.ID)
		if err != nil {
			return fmt.Errorf("failed to load records: %w", err)
		}

		a := analysis.ComputeAnalysis(snapshot)
		out := cmd.OutOrStdout()
		if reportJSON {
			return writeIndented(out, a)
		}

		faint := color.New(color.Faint)
		fmt.Fprintf(out, "%s %d\n", faint.Sprint("Records:          "), a.Stats.TotalCount)
		fmt.Fprintf(out, "%s %s\n", faint.Sprint("Average age:      "), formatMean(a.Stats.AvgAge))
		fmt.Fprintf(out, "%s %s (min %s, max %s)\n", faint.Sprint("Cholesterol avg:  "),
			formatMean(a.Stats.AvgChol), cholText(a.Stats.MinChol), cholText(a.Stats.MaxChol))
		fmt.Fprintln(out)

		if len(a.Risks) == 0 {
			color.New(color.FgGreen).Fprintln(out, "No high-risk records.")
			return nil
		}

		color.New(color.Bold).Fprintf(out, "%d high-risk record(s):\n", len(a.Risks))
		for _, r := range a.Risks {
			fmt.Fprintf(out, "%s %s %s %s %s%s\n",
				faint.Sprint(padRight(fmt.Sprint(r.ID), 5)),
				faint.Sprint(dateOrDash(r.Date)),
				padRight(truncate(r.PatientName, 24), 24),
				padRight(orDash(r.BloodPressure), 8),
				padRight(cholText(r.Cholesterol), 11),
				flagSuffix(r.Flags))
		}
		return nil
	},
}

func writeIndented(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func init() {
	statsCmd.Flags().BoolVar(&reportJSON, "json", false, "print JSON instead of a table")
	analyzeCmd.Flags().BoolVar(&reportJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(analyzeCmd)
}
