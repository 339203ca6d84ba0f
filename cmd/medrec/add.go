// ABOUTME: CLI commands for adding and editing medical records.
// ABOUTME: Edit replaces the whole record, starting from its current values.
package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/medrec/internal/analysis"
	"github.com/harperreed/medrec/internal/models"
)

var (
	recName        string
	recAge         int
	recBP          string
	recCholesterol int
	recNotes       string
	recDate        string
)

var addCmd = &cobra.Command{
	Use:     "add",
	Aliases: []string{"a"},
	Short:   "Add a medical record",
	Long: `Add a medical record for the acting account.

Patient name and a positive age are required. Blood pressure is free text
in "systolic/diastolic" form; readings that do not parse are stored but never
flagged. A cholesterol of 0 counts as not recorded.

EXAMPLES:

  medrec add --name "John Doe" --age 50
  medrec add --name "Jane Roe" --age 61 --bp 150/95 --cholesterol 240
  medrec add --name "Jane Roe" --age 61 --date 2024-03-01 --notes "fasting"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := actingUser()
		if err != nil {
			return err
		}

		fields := models.RecordFields{PatientName: recName, Age: recAge}
		if err := applyRecordFlags(cmd, &fields); err != nil {
			return err
		}

		r, err := recordStore().Create(owner.ID, fields)
		if err != nil {
			return fmt.Errorf("failed to add record: %w", err)
		}

		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Added record %d\n", r.ID)
		printRecordLine(cmd.OutOrStdout(), r)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a medical record",
	Long: `Edit a medical record. Flags that are not given keep their current
value; pass an empty string (for example --notes "") to clear a field.

EXAMPLES:

  medrec edit 12 --bp 128/82
  medrec edit 12 --cholesterol 0 --notes ""`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		owner, err := actingUser()
		if err != nil {
			return err
		}

		store := recordStore()
		current, err := store.Get(owner.ID, id)
		if err != nil {
			return recordErr(id, err)
		}

		fields := current.Fields()
		if cmd.Flags().Changed("name") {
			fields.PatientName = recName
		}
		if cmd.Flags().Changed("age") {
			fields.Age = recAge
		}
		if err := applyRecordFlags(cmd, &fields); err != nil {
			return err
		}

		r, err := store.Update(owner.ID, id, fields)
		if err != nil {
			return recordErr(id, err)
		}

		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Updated record %d\n", r.ID)
		printRecordLine(cmd.OutOrStdout(), r)
		return nil
	},
}

// applyRecordFlags copies the optional flags the user set onto fields.
func applyRecordFlags(cmd *cobra.Command, fields *models.RecordFields) error {
	flags := cmd.Flags()
	if flags.Changed("bp") {
		bp := recBP
		fields.BloodPressure = &bp
	}
	if flags.Changed("cholesterol") {
		chol := recCholesterol
		fields.Cholesterol = &chol
	}
	if flags.Changed("notes") {
		notes := recNotes
		fields.Notes = &notes
	}
	if flags.Changed("date") {
		if recDate == "" {
			fields.Date = nil
		} else {
			d, err := models.ParseDate(recDate)
			if err != nil {
				return fmt.Errorf("invalid date: %s (use YYYY-MM-DD)", recDate)
			}
			fields.Date = &d
		}
	}
	return nil
}

// printRecordLine prints the one-line summary used after add and edit.
func printRecordLine(w io.Writer, r *models.MedicalRecord) {
	fmt.Fprintf(w, "  %s %s, %d  %s  %s%s\n",
		color.New(color.Faint).Sprint(dateOrDash(r.Date)),
		r.PatientName, r.Age,
		orDash(r.BloodPressure),
		cholText(r.Cholesterol),
		flagSuffix(analysis.Assess(r)))
}

func addRecordFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&recName, "name", "", "patient name")
	cmd.Flags().IntVar(&recAge, "age", 0, "patient age in years")
	cmd.Flags().StringVar(&recBP, "bp", "", "blood pressure as systolic/diastolic")
	cmd.Flags().IntVar(&recCholesterol, "cholesterol", 0, "cholesterol in mg/dL (0 for not recorded)")
	cmd.Flags().StringVar(&recNotes, "notes", "", "clinical notes")
	cmd.Flags().StringVar(&recDate, "date", "", "reading date (YYYY-MM-DD)")
}

func init() {
	addRecordFlags(addCmd)
	addRecordFlags(editCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
}
