// ABOUTME: HealthAnalyzer: dashboard statistics and per-record risk flags.
// ABOUTME: Pure functions over a snapshot of one owner's records; never errors.
package analysis

import (
	"strconv"
	"strings"

	"github.com/harperreed/medrec/internal/models"
)

// Thresholds. Each comparison is strictly greater-than.
const (
	CholesterolLimit = 200
	SystolicLimit    = 140
	DiastolicLimit   = 90
)

// Risk flag labels, listed in the order they are attached.
const (
	FlagHighCholesterol = "High Cholesterol"
	FlagHighSystolic    = "High Systolic BP"
	FlagHighDiastolic   = "High Diastolic BP"
)

// DashboardStats is the summary shown on the dashboard.
type DashboardStats struct {
	TotalRecords         int      `json:"total_records" yaml:"total_records"`
	AvgAge               *float64 `json:"avg_age" yaml:"avg_age"`
	AvgCholesterol       *float64 `json:"avg_cholesterol" yaml:"avg_cholesterol"`
	HighCholesterolCount int      `json:"high_cholesterol_count" yaml:"high_cholesterol_count"`
	HighBPCount          int      `json:"high_bp_count" yaml:"high_bp_count"`
}

// Stats is the aggregate block of an Analysis.
type Stats struct {
	AvgAge     *float64 `json:"avg_age" yaml:"avg_age"`
	AvgChol    *float64 `json:"avg_chol" yaml:"avg_chol"`
	MinChol    *int     `json:"min_chol" yaml:"min_chol"`
	MaxChol    *int     `json:"max_chol" yaml:"max_chol"`
	TotalCount int      `json:"total_count" yaml:"total_count"`
}

// Risk is a flagged record with the flags that apply to it.
type Risk struct {
	ID            int64        `json:"id" yaml:"id"`
	PatientName   string       `json:"patient_name" yaml:"patient_name"`
	Cholesterol   *int         `json:"cholesterol" yaml:"cholesterol"`
	BloodPressure *string      `json:"blood_pressure" yaml:"blood_pressure"`
	Date          *models.Date `json:"date" yaml:"date"`
	Flags         []string     `json:"flags" yaml:"flags"`
}

// Analysis is the full risk view for one owner.
type Analysis struct {
	Stats Stats  `json:"stats" yaml:"stats"`
	Risks []Risk `json:"risks" yaml:"risks"`
}

// ParseBloodPressure splits a "systolic/diastolic" reading. Systolic is the
// text before the first slash and diastolic the text after the last one.
// Each side is read as its leading integer, so "150 mmHg" and "150.5" give
// 150. A side with no leading digits comes back nil.
//
// Without a slash both sides read the whole string, so "150" is 150/150.
// This follows the stored-data aggregate, which treats the whole value as
// each side, rather than the per-record view that left diastolic empty.
func ParseBloodPressure(bp string) (systolic, diastolic *int) {
	if strings.TrimSpace(bp) == "" {
		return nil, nil
	}
	first, last := bp, bp
	if i := strings.Index(bp, "/"); i >= 0 {
		first = bp[:i]
		last = bp[strings.LastIndex(bp, "/")+1:]
	}
	return parseSide(first), parseSide(last)
}

// parseSide reads the longest leading [+-]?digits prefix of s.
func parseSide(s string) *int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return nil
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil
	}
	return &n
}

func highCholesterol(r *models.MedicalRecord) bool {
	return r.Cholesterol != nil && *r.Cholesterol > CholesterolLimit
}

func pressures(r *models.MedicalRecord) (systolic, diastolic *int) {
	if r.BloodPressure == nil {
		return nil, nil
	}
	return ParseBloodPressure(*r.BloodPressure)
}

func highSystolic(r *models.MedicalRecord) bool {
	sys, _ := pressures(r)
	return sys != nil && *sys > SystolicLimit
}

func highDiastolic(r *models.MedicalRecord) bool {
	_, dia := pressures(r)
	return dia != nil && *dia > DiastolicLimit
}

// Assess returns the risk flags that apply to r, in fixed order.
// An empty result means no high-risk indicators.
func Assess(r *models.MedicalRecord) []string {
	var flags []string
	if highCholesterol(r) {
		flags = append(flags, FlagHighCholesterol)
	}
	if highSystolic(r) {
		flags = append(flags, FlagHighSystolic)
	}
	if highDiastolic(r) {
		flags = append(flags, FlagHighDiastolic)
	}
	return flags
}

// ComputeStats builds the dashboard summary. The high blood pressure count
// looks at systolic readings only.
func ComputeStats(records []*models.MedicalRecord) DashboardStats {
	stats := DashboardStats{TotalRecords: len(records)}

	var ages, chol agg
	for _, r := range records {
		ages.add(r.Age)
		if r.Cholesterol != nil {
			chol.add(*r.Cholesterol)
		}
		if highCholesterol(r) {
			stats.HighCholesterolCount++
		}
		if highSystolic(r) {
			stats.HighBPCount++
		}
	}

	stats.AvgAge = ages.mean()
	stats.AvgCholesterol = chol.mean()
	return stats
}

// ComputeAnalysis builds the aggregate block and the list of flagged
// records, newest first.
func ComputeAnalysis(records []*models.MedicalRecord) Analysis {
	var ages, chol agg
	flagged := make([]*models.MedicalRecord, 0, len(records))
	for _, r := range records {
		ages.add(r.Age)
		if r.Cholesterol != nil {
			chol.add(*r.Cholesterol)
		}
		if len(Assess(r)) > 0 {
			flagged = append(flagged, r)
		}
	}

	// Sort a copy of the slice so the caller's order is left alone.
	models.SortByDateDesc(flagged)

	risks := make([]Risk, 0, len(flagged))
	for _, r := range flagged {
		risks = append(risks, Risk{
			ID:            r.ID,
			PatientName:   r.PatientName,
			Cholesterol:   r.Cholesterol,
			BloodPressure: r.BloodPressure,
			Date:          r.Date,
			Flags:         Assess(r),
		})
	}

	return Analysis{
		Stats: Stats{
			AvgAge:     ages.mean(),
			AvgChol:    chol.mean(),
			MinChol:    chol.minimum(),
			MaxChol:    chol.maximum(),
			TotalCount: len(records),
		},
		Risks: risks,
	}
}

// agg accumulates the values an SQL AVG/MIN/MAX would see.
type agg struct {
	n        int
	sum      int64
	min, max int
}

func (a *agg) add(v int) {
	if a.n == 0 || v < a.min {
		a.min = v
	}
	if a.n == 0 || v > a.max {
		a.max = v
	}
	a.n++
	a.sum += int64(v)
}

func (a *agg) mean() *float64 {
	if a.n == 0 {
		return nil
	}
	m := float64(a.sum) / float64(a.n)
	return &m
}

func (a *agg) minimum() *int {
	if a.n == 0 {
		return nil
	}
	v := a.min
	return &v
}

func (a *agg) maximum() *int {
	if a.n == 0 {
		return nil
	}
	v := a.max
	return &v
}
