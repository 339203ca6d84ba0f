// ABOUTME: CLI command for deleting medical records.
// ABOUTME: Shows the record being removed before deleting it.
package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"del", "rm"},
	Short:   "Delete a medical record",
	Long: `Delete a medical record by its ID.

The ID is shown in the first column of 'medrec list' output.

CAUTION:

  This permanently deletes the record. There is no undo.`,
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
		r, err := store.Get(owner.ID, id)
		if err != nil {
			return recordErr(id, err)
		}
		if err := store.Delete(owner.ID, id); err != nil {
			return recordErr(id, err)
		}

		color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "✗ Deleted record %d\n", r.ID)
		printRecordLine(cmd.OutOrStdout(), r)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
