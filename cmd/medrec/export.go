// ABOUTME: CLI commands for exporting and importing medrec data.
// ABOUTME: Supports CSV, JSON, YAML, Markdown, PDF and full-backup formats.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/medrec/internal/export"
	"github.com/harperreed/medrec/internal/models"
	"github.com/harperreed/medrec/internal/storage"
)

var (
	exportOutput string
	exportSince  string
	exportID     int64
	importBackup bool
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export medical records",
	Long: `Export the acting account's records in various formats.

FORMATS:

  csv        Spreadsheet rows (ID, Patient Name, Age, Blood Pressure, ...)
  json       Records plus stats and risks (re-importable with 'medrec import')
  yaml       Same content as json, human-readable
  markdown   Summary, records and risks as Markdown tables
  pdf        Report for one record (requires --id)
  backup     Every account and record in the store (restore with 'import --backup')

OPTIONS:

  --output, -o   Write to file instead of stdout (pdf defaults to a file)
  --since        Only include records dated on or after this date (YYYY-MM-DD)
  --id           Record to render (pdf only)

EXAMPLES:

  medrec export csv -o records.csv
  medrec export json > mine.json
  medrec export markdown --since 2024-01-01
  medrec export pdf --id 12`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"csv", "json", "yaml", "markdown", "pdf", "backup"},
	RunE: func(cmd *cobra.Command, args []string) error {
		format := args[0]

		if format == "backup" {
			data, err := storage.ExportJSON(repo)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			return emit(cmd, data)
		}

		owner, err := actingUser()
		if err != nil {
			return err
		}

		if format == "pdf" {
			return exportPDF(cmd, owner)
		}

		list, err := recordStore().List(owner.ID, "")
		if err != nil {
			return fmt.Errorf("failed to list records: %w", err)
		}
		if exportSince != "" {
			since, err := models.ParseDate(exportSince)
			if err != nil {
				return fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", exportSince)
			}
			list = export.Since(list, since)
		}

		var data []byte
		switch format {
		case "csv":
			var buf bytes.Buffer
			if err := export.WriteCSV(&buf, list); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			data = buf.Bytes()
		case "json":
			data, err = export.NewDocument(owner.Username, list).JSON()
		case "yaml":
			data, err = export.NewDocument(owner.Username, list).YAML()
		case "markdown":
			data = []byte(export.NewDocument(owner.Username, list).Markdown())
		default:
			return fmt.Errorf("unknown format: %s (use csv, json, yaml, markdown, pdf or backup)", format)
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		return emit(cmd, data)
	},
}

func exportPDF(cmd *cobra.Command, owner *models.User) error {
	if exportID <= 0 {
		return errors.New("pdf export needs --id <record id>")
	}

	r, err := recordStore().Get(owner.ID, exportID)
	if err != nil {
		return recordErr(exportID, err)
	}

	var buf bytes.Buffer
	if err := export.WritePDF(&buf, r, time.Now()); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if exportOutput == "" {
		exportOutput = export.PDFFileName(r)
		defer func() { exportOutput = "" }()
	}
	return emit(cmd, buf.Bytes())
}

// emit writes data to --output or stdout.
func emit(cmd *cobra.Command, data []byte) error {
	if exportOutput != "" {
		if err := os.WriteFile(exportOutput, data, 0600); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Exported to %s\n", exportOutput)
		return nil
	}
	_, err := cmd.OutOrStdout().Write(data)
	return err
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import medical records from JSON",
	Long: `Import records from a JSON file written by 'medrec export json'.

Records are added to the acting account with new IDs. With --backup the
file must come from 'medrec export backup'; every account and record is
restored with its original ID, and duplicates cause an error.

EXAMPLES:

  medrec import mine.json
  medrec import --backup full.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		if importBackup {
			if err := storage.ImportJSON(repo, data); err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Restored backup from %s\n", filename)
			return nil
		}

		owner, err := actingUser()
		if err != nil {
			return err
		}

		var doc export.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("import failed: parse %s: %w", filename, err)
		}

		store := recordStore()
		for i, r := range doc.Records {
			if _, err := store.Create(owner.ID, r.Fields()); err != nil {
				return fmt.Errorf("import failed at record %d: %w", i+1, err)
			}
		}

		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Imported %d record(s) from %s\n", len(doc.Records), filename)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().StringVar(&exportSince, "since", "", "only include records since date (YYYY-MM-DD)")
	exportCmd.Flags().Int64Var(&exportID, "id", 0, "record id (pdf only)")
	importCmd.Flags().BoolVar(&importBackup, "backup", false, "restore a full backup instead of adding records")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
