// ABOUTME: CSV export of one owner's medical records.
// ABOUTME: Columns follow the spreadsheet layout users download from the web app.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/harperreed/medrec/internal/models"
)

// CSVFileName is the attachment name used for CSV downloads.
const CSVFileName = "medical_records.csv"

// CSVHeader is the first row of every CSV export.
var CSVHeader = []string{"ID", "Patient Name", "Age", "Blood Pressure", "Cholesterol", "Date", "Notes"}

// WriteCSV writes records in the given order. Absent values become empty cells.
func WriteCSV(w io.Writer, records []*models.MedicalRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		if err := writer.Write(csvRow(r)); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.ID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func csvRow(r *models.MedicalRecord) []string {
	row := []string{
		strconv.FormatInt(r.ID, 10),
		r.PatientName,
		strconv.Itoa(r.Age),
		"", "", "", "",
	}
	if r.BloodPressure != nil {
		row[3] = *r.BloodPressure
	}
	if r.Cholesterol != nil {
		row[4] = strconv.Itoa(*r.Cholesterol)
	}
	if r.Date != nil {
		row[5] = r.Date.String()
	}
	if r.Notes != nil {
		row[6] = *r.Notes
	}
	return row
}
