// ABOUTME: Formatting and argument helpers shared by the CLI commands.
// ABOUTME: Keeps column layout and error wording consistent.
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/harperreed/medrec/internal/models"
	"github.com/harperreed/medrec/internal/records"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id: %s", s)
	}
	return id, nil
}

// recordErr turns a store error about id into a CLI message.
func recordErr(id int64, err error) error {
	if records.IsNotFound(err) {
		return fmt.Errorf("record %d not found", id)
	}
	return err
}

func dateOrDash(d *models.Date) string {
	if d == nil {
		return "----------"
	}
	return d.String()
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func cholText(c *int) string {
	if c == nil {
		return "-"
	}
	return fmt.Sprintf("%d mg/dL", *c)
}

func formatMean(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func flagSuffix(flags []string) string {
	if len(flags) == 0 {
		return ""
	}
	return "  " + color.New(color.FgRed).Sprint("⚠ "+strings.Join(flags, ", "))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}
