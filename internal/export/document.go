// ABOUTME: JSON, YAML and Markdown exports of one owner's records.
// ABOUTME: Each export carries the records plus the computed analysis.
package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harperreed/medrec/internal/analysis"
	"github.com/harperreed/medrec/internal/models"
)

// Version is the per-owner export format version.
const Version = "1.0"

// Document is a per-owner export.
type Document struct {
	Version    string                  `json:"version" yaml:"version"`
	ExportedAt time.Time               `json:"exported_at" yaml:"exported_at"`
	Tool       string                  `json:"tool" yaml:"tool"`
	Owner      string                  `json:"owner" yaml:"owner"`
	Stats      analysis.DashboardStats `json:"stats" yaml:"stats"`
	Records    []*models.MedicalRecord `json:"records" yaml:"records"`
	Risks      []analysis.Risk         `json:"risks" yaml:"risks"`
}

// NewDocument builds the export for owner from records in list order.
func NewDocument(owner string, records []*models.MedicalRecord) *Document {
	if records == nil {
		records = []*models.MedicalRecord{}
	}
	return &Document{
		Version:    Version,
		ExportedAt: time.Now().UTC(),
		Tool:       "medrec",
		Owner:      owner,
		Stats:      analysis.ComputeStats(records),
		Records:    records,
		Risks:      analysis.ComputeAnalysis(records).Risks,
	}
}

// Since keeps the records dated on or after since. Undated records are dropped.
func Since(records []*models.MedicalRecord, since models.Date) []*models.MedicalRecord {
	var out []*models.MedicalRecord
	for _, r := range records {
		if r.Date != nil && !r.Date.Before(since.Time) {
			out = append(out, r)
		}
	}
	return out
}

// JSON renders doc as indented JSON.
func (doc *Document) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return data, nil
}

// YAML renders doc in a flatter, hand-editable layout.
func (doc *Document) YAML() ([]byte, error) {
	out := struct {
		Version    string                  `yaml:"version"`
		ExportedAt string                  `yaml:"exported_at"`
		Tool       string                  `yaml:"tool"`
		Owner      string                  `yaml:"owner"`
		Stats      analysis.DashboardStats `yaml:"stats"`
		Records    []yamlRecord            `yaml:"records"`
	}{
		Version:    doc.Version,
		ExportedAt: doc.ExportedAt.Format(time.RFC3339),
		Tool:       doc.Tool,
		Owner:      doc.Owner,
		Stats:      doc.Stats,
		Records:    make([]yamlRecord, 0, len(doc.Records)),
	}

	for _, r := range doc.Records {
		yr := yamlRecord{
			ID:          r.ID,
			PatientName: r.PatientName,
			Age:         r.Age,
			Flags:       analysis.Assess(r),
		}
		if r.BloodPressure != nil {
			yr.BloodPressure = *r.BloodPressure
		}
		if r.Cholesterol != nil {
			yr.Cholesterol = *r.Cholesterol
		}
		if r.Date != nil {
			yr.Date = r.Date.String()
		}
		if r.Notes != nil {
			yr.Notes = *r.Notes
		}
		out.Records = append(out.Records, yr)
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return data, nil
}

type yamlRecord struct {
	ID            int64    `yaml:"id"`
	PatientName   string   `yaml:"patient_name"`
	Age           int      `yaml:"age"`
	BloodPressure string   `yaml:"blood_pressure,omitempty"`
	Cholesterol   int      `yaml:"cholesterol,omitempty"`
	Date          string   `yaml:"date,omitempty"`
	Notes         string   `yaml:"notes,omitempty"`
	Flags         []string `yaml:"flags,omitempty"`
}

// Markdown renders doc as a summary plus record and risk tables.
func (doc *Document) Markdown() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Medical Records - %s\n\n", doc.Owner))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", doc.ExportedAt.Format(time.RFC3339)))

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- Total records: %d\n", doc.Stats.TotalRecords))
	sb.WriteString(fmt.Sprintf("- Average age: %s\n", formatMean(doc.Stats.AvgAge, 1)))
	sb.WriteString(fmt.Sprintf("- Average cholesterol: %s\n", formatMean(doc.Stats.AvgCholesterol, 0)))
	sb.WriteString(fmt.Sprintf("- High cholesterol: %d\n", doc.Stats.HighCholesterolCount))
	sb.WriteString(fmt.Sprintf("- High blood pressure: %d\n\n", doc.Stats.HighBPCount))

	sb.WriteString("## Records\n\n")
	sb.WriteString("| ID | Date | Patient | Age | Blood Pressure | Cholesterol | Notes |\n")
	sb.WriteString("|----|------|---------|-----|----------------|-------------|-------|\n")
	for _, r := range doc.Records {
		chol := ""
		if r.Cholesterol != nil {
			chol = strconv.Itoa(*r.Cholesterol)
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %d | %s | %s | %s |\n",
			r.ID, dateText(r.Date), cell(r.PatientName), r.Age,
			cell(deref(r.BloodPressure)), chol, cell(deref(r.Notes))))
	}

	if len(doc.Risks) > 0 {
		sb.WriteString("\n## Risks\n\n")
		sb.WriteString("| ID | Date | Patient | Flags |\n")
		sb.WriteString("|----|------|---------|-------|\n")
		for _, risk := range doc.Risks {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n",
				risk.ID, dateText(risk.Date), cell(risk.PatientName), strings.Join(risk.Flags, ", ")))
		}
	}

	return sb.String()
}

func formatMean(v *float64, decimals int) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', decimals, 64)
}

// cell keeps a value on one table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
