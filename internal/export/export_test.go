// ABOUTME: Tests for CSV, PDF, JSON, YAML and Markdown exports.
// ABOUTME: Checks column layout, file naming and that absent values stay empty.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harperreed/medrec/internal/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func datePtr(s string) *models.Date {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func fixtures() []*models.MedicalRecord {
	return []*models.MedicalRecord{
		{ID: 2, OwnerID: 1, PatientName: "John Doe", Age: 50, BloodPressure: strPtr("150/95"),
			Cholesterol: intPtr(210), Date: datePtr("2024-01-02"), Notes: strPtr(`said "hi", then left`)},
		{ID: 1, OwnerID: 1, PatientName: "Jane Roe", Age: 30},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, fixtures()); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if strings.Join(rows[0], ",") != "ID,Patient Name,Age,Blood Pressure,Cholesterol,Date,Notes" {
		t.Errorf("header = %v", rows[0])
	}

	want := []string{"2", "John Doe", "50", "150/95", "210", "2024-01-02", `said "hi", then left`}
	for i, v := range want {
		if rows[1][i] != v {
			t.Errorf("row 1 col %d = %q, want %q", i, rows[1][i], v)
		}
	}

	empty := []string{"1", "Jane Roe", "30", "", "", "", ""}
	for i, v := range empty {
		if rows[2][i] != v {
			t.Errorf("row 2 col %d = %q, want %q", i, rows[2][i], v)
		}
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != strings.Join(CSVHeader, ",") {
		t.Errorf("empty export = %q", got)
	}
}

func TestPDFFileName(t *testing.T) {
	r := &models.MedicalRecord{ID: 7, PatientName: "Mary  Ann\tSmith"}
	if got := PDFFileName(r); got != "medical_record_Mary_Ann_Smith_7.pdf" {
		t.Errorf("PDFFileName() = %q", got)
	}
}

func TestRiskLines(t *testing.T) {
	lines := RiskLines(fixtures()[0])
	want := []string{
		"High Cholesterol (>200 mg/dL)",
		"High Systolic Blood Pressure (>140)",
		"High Diastolic Blood Pressure (>90)",
	}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("RiskLines() = %v, want %v", lines, want)
	}
	if got := RiskLines(fixtures()[1]); len(got) != 0 {
		t.Errorf("RiskLines() for healthy record = %v", got)
	}
}

func TestWritePDF(t *testing.T) {
	for _, r := range fixtures() {
		var buf bytes.Buffer
		if err := WritePDF(&buf, r, time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)); err != nil {
			t.Fatalf("WritePDF(%d) failed: %v", r.ID, err)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
			t.Errorf("record %d: output is not a PDF", r.ID)
		}
	}
}

func TestDocumentJSON(t *testing.T) {
	doc := NewDocument("alice", fixtures())
	data, err := doc.JSON()
	if err != nil {
		t.Fatalf("JSON failed: %v", err)
	}

	var decoded struct {
		Owner   string `json:"owner"`
		Records []struct {
			ID          int64 `json:"id"`
			Cholesterol *int  `json:"cholesterol"`
		} `json:"records"`
		Risks []struct {
			ID    int64    `json:"id"`
			Flags []string `json:"flags"`
		} `json:"risks"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Owner != "alice" || len(decoded.Records) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Records[1].Cholesterol != nil {
		t.Error("absent cholesterol should stay null")
	}
	if len(decoded.Risks) != 1 || decoded.Risks[0].ID != 2 || len(decoded.Risks[0].Flags) != 3 {
		t.Errorf("risks = %+v", decoded.Risks)
	}
}

func TestDocumentYAML(t *testing.T) {
	data, err := NewDocument("alice", fixtures()).YAML()
	if err != nil {
		t.Fatalf("YAML failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	records, ok := decoded["records"].([]interface{})
	if !ok || len(records) != 2 {
		t.Fatalf("records = %v", decoded["records"])
	}
	first := records[0].(map[string]interface{})
	if first["date"] != "2024-01-02" || first["blood_pressure"] != "150/95" {
		t.Errorf("first record = %v", first)
	}
	second := records[1].(map[string]interface{})
	if _, has := second["notes"]; has {
		t.Error("absent notes should be omitted")
	}
}

func TestDocumentMarkdown(t *testing.T) {
	md := NewDocument("alice", fixtures()).Markdown()

	for _, want := range []string{
		"# Medical Records - alice",
		"- Total records: 2",
		"- Average age: 40.0",
		"| 2 | 2024-01-02 | John Doe | 50 | 150/95 | 210 |",
		"## Risks",
		"High Cholesterol, High Systolic BP, High Diastolic BP",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestSince(t *testing.T) {
	records := fixtures()
	got := Since(records, *datePtr("2024-01-02"))
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("Since() = %v", got)
	}
	if got := Since(records, *datePtr("2024-01-03")); len(got) != 0 {
		t.Errorf("Since(later) returned %d records", len(got))
	}
}
