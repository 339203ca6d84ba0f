// ABOUTME: Single-record PDF report rendered with gofpdf.
// ABOUTME: Patient details, vital signs, risk assessment and clinical notes.
package export

import (
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/harperreed/medrec/internal/analysis"
	"github.com/harperreed/medrec/internal/models"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// PDFFileName is the attachment name for r's report.
func PDFFileName(r *models.MedicalRecord) string {
	return fmt.Sprintf("medical_record_%s_%d.pdf", whitespaceRun.ReplaceAllString(r.PatientName, "_"), r.ID)
}

// RiskLines describes each flag on r in report wording.
func RiskLines(r *models.MedicalRecord) []string {
	var lines []string
	for _, flag := range analysis.Assess(r) {
		switch flag {
		case analysis.FlagHighCholesterol:
			lines = append(lines, fmt.Sprintf("High Cholesterol (>%d mg/dL)", analysis.CholesterolLimit))
		case analysis.FlagHighSystolic:
			lines = append(lines, fmt.Sprintf("High Systolic Blood Pressure (>%d)", analysis.SystolicLimit))
		case analysis.FlagHighDiastolic:
			lines = append(lines, fmt.Sprintf("High Diastolic Blood Pressure (>%d)", analysis.DiastolicLimit))
		}
	}
	return lines
}

// WritePDF renders the report for r to w. generated is printed in the footer.
func WritePDF(w io.Writer, r *models.MedicalRecord, generated time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(102, 102, 102)
		pdf.CellFormat(0, 10, "Generated on "+generated.Format("2006-01-02 15:04:05"), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont("Arial", "B", 22)
	pdf.SetTextColor(25, 118, 210)
	pdf.CellFormat(0, 12, "Medical Record Report", "", 1, "C", false, 0, "")
	pdf.SetDrawColor(25, 118, 210)
	pdf.SetLineWidth(0.7)
	y := pdf.GetY() + 2
	pdf.Line(18, y, 192, y)
	pdf.Ln(8)

	section := func(title string) {
		pdf.SetFont("Arial", "BU", 14)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 12)
	}
	line := func(text string) {
		pdf.CellFormat(0, 7, tr(text), "", 1, "L", false, 0, "")
	}

	section("Patient Information")
	line("Patient Name: " + r.PatientName)
	line(fmt.Sprintf("Age: %d years", r.Age))
	line("Date of Record: " + orDefault(dateText(r.Date), "N/A"))
	pdf.Ln(4)

	section("Vital Signs & Measurements")
	bp := "Not recorded"
	if r.BloodPressure != nil {
		bp = *r.BloodPressure
	}
	chol := "Not recorded"
	if r.Cholesterol != nil {
		chol = fmt.Sprintf("%d mg/dL", *r.Cholesterol)
	}
	line("Blood Pressure: " + bp)
	line("Cholesterol Level: " + chol)
	pdf.Ln(4)

	section("Risk Assessment")
	if risks := RiskLines(r); len(risks) > 0 {
		pdf.SetTextColor(220, 0, 78)
		for _, risk := range risks {
			line("! " + risk)
		}
	} else {
		pdf.SetTextColor(76, 175, 80)
		line("No high-risk indicators detected")
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	if r.Notes != nil {
		section("Clinical Notes")
		pdf.MultiCell(0, 6, tr(*r.Notes), "", "J", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf for record %d: %w", r.ID, err)
	}
	return nil
}

func dateText(d *models.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
