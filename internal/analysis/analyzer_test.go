// ABOUTME: Tests for blood pressure parsing, risk flags and aggregate stats.
// ABOUTME: Includes the threshold boundaries and the empty-set case.
package analysis

import (
	"reflect"
	"testing"

	"github.com/harperreed/medrec/internal/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func rec(id int64, age int, chol *int, bp *string, date string) *models.MedicalRecord {
	r := &models.MedicalRecord{ID: id, OwnerID: 1, PatientName: "P", Age: age, Cholesterol: chol, BloodPressure: bp}
	if date != "" {
		d, err := models.ParseDate(date)
		if err != nil {
			panic(err)
		}
		r.Date = &d
	}
	return r
}

func TestParseBloodPressure(t *testing.T) {
	tests := []struct {
		in       string
		sys, dia *int
	}{
		{"160/95", intPtr(160), intPtr(95)},
		{"120/80", intPtr(120), intPtr(80)},
		{" 150 / 95 ", intPtr(150), intPtr(95)},
		{"/95", nil, intPtr(95)},
		{"abc/95", nil, intPtr(95)},
		{"150/", intPtr(150), nil},
		{"150/abc", intPtr(150), nil},
		{"150/70/95", intPtr(150), intPtr(95)},
		{"150", intPtr(150), intPtr(150)},
		{"150 mmHg/95 mmHg", intPtr(150), intPtr(95)},
		{"155abc/80", intPtr(155), intPtr(80)},
		{"150.5/92.2", intPtr(150), intPtr(92)},
		{"+150/-5", intPtr(150), intPtr(-5)},
		{"mmHg 150/95", nil, intPtr(95)},
		{"-/95", nil, intPtr(95)},
		{"", nil, nil},
		{"   ", nil, nil},
		{"/", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			sys, dia := ParseBloodPressure(tt.in)
			if !reflect.DeepEqual(sys, tt.sys) {
				t.Errorf("systolic = %v, want %v", deref(sys), deref(tt.sys))
			}
			if !reflect.DeepEqual(dia, tt.dia) {
				t.Errorf("diastolic = %v, want %v", deref(dia), deref(tt.dia))
			}
		})
	}
}

func deref(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func TestAssess(t *testing.T) {
	tests := []struct {
		name string
		chol *int
		bp   *string
		want []string
	}{
		{"all high", intPtr(210), strPtr("160/95"), []string{FlagHighCholesterol, FlagHighSystolic, FlagHighDiastolic}},
		{"both bp", nil, strPtr("160/95"), []string{FlagHighSystolic, FlagHighDiastolic}},
		{"missing systolic", nil, strPtr("/95"), []string{FlagHighDiastolic}},
		{"garbage systolic", nil, strPtr("abc/95"), []string{FlagHighDiastolic}},
		{"empty bp", nil, strPtr(""), nil},
		{"absent bp", nil, nil, nil},
		{"cholesterol 250", intPtr(250), nil, []string{FlagHighCholesterol}},
		{"cholesterol 200", intPtr(200), nil, nil},
		{"systolic 140", nil, strPtr("140/80"), nil},
		{"diastolic 90", nil, strPtr("120/90"), nil},
		{"diastolic 91", nil, strPtr("120/91"), []string{FlagHighDiastolic}},
		{"units suffix", nil, strPtr("150 mmHg/95 mmHg"), []string{FlagHighSystolic, FlagHighDiastolic}},
		{"trailing letters", nil, strPtr("155abc/80"), []string{FlagHighSystolic}},
		{"decimals", nil, strPtr("150.5/92.2"), []string{FlagHighSystolic, FlagHighDiastolic}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assess(rec(1, 40, tt.chol, tt.bp, ""))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Assess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)
	if stats.TotalRecords != 0 || stats.HighCholesterolCount != 0 || stats.HighBPCount != 0 {
		t.Errorf("counts = %+v, want zeros", stats)
	}
	if stats.AvgAge != nil || stats.AvgCholesterol != nil {
		t.Error("averages should be undefined for zero records")
	}
}

func TestComputeStats(t *testing.T) {
	records := []*models.MedicalRecord{
		rec(1, 40, intPtr(180), strPtr("120/95"), ""),
		rec(2, 60, intPtr(240), strPtr("150/80"), ""),
		rec(3, 50, nil, strPtr("abc"), ""),
	}

	stats := ComputeStats(records)

	if stats.TotalRecords != 3 {
		t.Errorf("TotalRecords = %d, want 3", stats.TotalRecords)
	}
	if stats.AvgAge == nil || *stats.AvgAge != 50 {
		t.Errorf("AvgAge = %v, want 50", stats.AvgAge)
	}
	// Records without cholesterol are left out of the average.
	if stats.AvgCholesterol == nil || *stats.AvgCholesterol != 210 {
		t.Errorf("AvgCholesterol = %v, want 210", stats.AvgCholesterol)
	}
	if stats.HighCholesterolCount != 1 {
		t.Errorf("HighCholesterolCount = %d, want 1", stats.HighCholesterolCount)
	}
	// Diastolic 95 on record 1 does not count here.
	if stats.HighBPCount != 1 {
		t.Errorf("HighBPCount = %d, want 1", stats.HighBPCount)
	}
}

func TestComputeStatsPartiallyNumeric(t *testing.T) {
	for _, bp := range []string{"150 mmHg/95 mmHg", "155abc/80", "150.5/92.2"} {
		stats := ComputeStats([]*models.MedicalRecord{rec(1, 40, nil, strPtr(bp), "")})
		if stats.HighBPCount != 1 {
			t.Errorf("%q: HighBPCount = %d, want 1", bp, stats.HighBPCount)
		}
	}
}

func TestSingleRecordScenario(t *testing.T) {
	records := []*models.MedicalRecord{rec(1, 50, intPtr(210), strPtr("150/95"), "")}

	stats := ComputeStats(records)
	if stats.TotalRecords != 1 || *stats.AvgAge != 50 || *stats.AvgCholesterol != 210 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.HighCholesterolCount != 1 || stats.HighBPCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", stats.HighCholesterolCount, stats.HighBPCount)
	}

	a := ComputeAnalysis(records)
	if len(a.Risks) != 1 {
		t.Fatalf("got %d risks, want 1", len(a.Risks))
	}
	want := []string{"High Cholesterol", "High Systolic BP", "High Diastolic BP"}
	if !reflect.DeepEqual(a.Risks[0].Flags, want) {
		t.Errorf("flags = %v, want %v", a.Risks[0].Flags, want)
	}
}

func TestComputeAnalysis(t *testing.T) {
	records := []*models.MedicalRecord{
		rec(1, 30, intPtr(150), strPtr("120/80"), "2024-03-01"),
		rec(2, 40, nil, strPtr("120/95"), "2024-01-01"),
		rec(3, 50, intPtr(260), nil, "2024-02-01"),
		rec(4, 60, nil, strPtr("150/80"), ""),
		rec(5, 20, intPtr(190), strPtr("garbage"), "2024-04-01"),
	}

	a := ComputeAnalysis(records)

	if a.Stats.TotalCount != 5 {
		t.Errorf("TotalCount = %d, want 5", a.Stats.TotalCount)
	}
	if a.Stats.AvgAge == nil || *a.Stats.AvgAge != 40 {
		t.Errorf("AvgAge = %v, want 40", a.Stats.AvgAge)
	}
	if a.Stats.MinChol == nil || *a.Stats.MinChol != 150 {
		t.Errorf("MinChol = %v, want 150", a.Stats.MinChol)
	}
	if a.Stats.MaxChol == nil || *a.Stats.MaxChol != 260 {
		t.Errorf("MaxChol = %v, want 260", a.Stats.MaxChol)
	}
	if a.Stats.AvgChol == nil || *a.Stats.AvgChol != 200 {
		t.Errorf("AvgChol = %v, want 200", a.Stats.AvgChol)
	}

	// Diastolic-only record 2 is a risk even though it is not in HighBPCount.
	wantIDs := []int64{3, 2, 4}
	if len(a.Risks) != len(wantIDs) {
		t.Fatalf("got %d risks, want %d", len(a.Risks), len(wantIDs))
	}
	for i, id := range wantIDs {
		if a.Risks[i].ID != id {
			t.Errorf("risk %d: id = %d, want %d", i, a.Risks[i].ID, id)
		}
	}
	if !reflect.DeepEqual(a.Risks[1].Flags, []string{FlagHighDiastolic}) {
		t.Errorf("record 2 flags = %v", a.Risks[1].Flags)
	}

	// Input order is untouched.
	if records[0].ID != 1 || records[4].ID != 5 {
		t.Error("ComputeAnalysis reordered its input")
	}
}

func TestComputeAnalysisNoCholesterol(t *testing.T) {
	a := ComputeAnalysis([]*models.MedicalRecord{rec(1, 30, nil, nil, "")})
	if a.Stats.AvgChol != nil || a.Stats.MinChol != nil || a.Stats.MaxChol != nil {
		t.Errorf("cholesterol stats should be undefined: %+v", a.Stats)
	}
	if a.Risks == nil || len(a.Risks) != 0 {
		t.Errorf("Risks = %v, want empty non-nil slice", a.Risks)
	}
}

func TestRiskTieBreakByID(t *testing.T) {
	records := []*models.MedicalRecord{
		rec(5, 30, intPtr(250), nil, "2024-01-01"),
		rec(3, 30, intPtr(250), nil, "2024-01-02"),
		rec(9, 30, intPtr(250), nil, "2024-01-01"),
	}
	a := ComputeAnalysis(records)
	want := []int64{3, 9, 5}
	for i, id := range want {
		if a.Risks[i].ID != id {
			t.Errorf("position %d: id = %d, want %d", i, a.Risks[i].ID, id)
		}
	}
}
