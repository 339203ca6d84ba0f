// ABOUTME: MedicalRecord model and the user-supplied field set.
// ABOUTME: Holds validation, normalization and the canonical list ordering.
package models

import (
	"sort"
	"strings"
	"time"
)

// MedicalRecord is one patient reading owned by a single user.
type MedicalRecord struct {
	ID            int64     `json:"id" yaml:"id"`
	OwnerID       int64     `json:"owner_id" yaml:"owner_id"`
	PatientName   string    `json:"patient_name" yaml:"patient_name"`
	Age           int       `json:"age" yaml:"age"`
	BloodPressure *string   `json:"blood_pressure" yaml:"blood_pressure,omitempty"`
	Cholesterol   *int      `json:"cholesterol" yaml:"cholesterol,omitempty"`
	Notes         *string   `json:"notes" yaml:"notes,omitempty"`
	Date          *Date     `json:"date" yaml:"date,omitempty"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"updated_at"`
}

// RecordFields is everything a caller may set on a record.
// ID and OwnerID are never part of it.
type RecordFields struct {
	PatientName   string  `json:"patient_name"`
	Age           int     `json:"age"`
	BloodPressure *string `json:"blood_pressure,omitempty"`
	Cholesterol   *int    `json:"cholesterol,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	Date          *Date   `json:"date,omitempty"`
}

// Normalize trims the patient name and turns empty optional values into
// absent ones. A cholesterol of zero counts as not recorded.
func (f RecordFields) Normalize() RecordFields {
	f.PatientName = strings.TrimSpace(f.PatientName)
	f.BloodPressure = nonEmpty(f.BloodPressure)
	f.Notes = nonEmpty(f.Notes)
	if f.Cholesterol != nil && *f.Cholesterol == 0 {
		f.Cholesterol = nil
	}
	return f
}

// Validate checks the required fields.
func (f RecordFields) Validate() error {
	if strings.TrimSpace(f.PatientName) == "" {
		return &ValidationError{Field: "patient_name", Message: "Patient name and age are required"}
	}
	if f.Age <= 0 {
		return &ValidationError{Field: "age", Message: "Patient name and age are required"}
	}
	return nil
}

// NewRecord builds an unsaved record for owner from normalized fields.
func NewRecord(ownerID int64, fields RecordFields) *MedicalRecord {
	now := time.Now().UTC()
	r := &MedicalRecord{OwnerID: ownerID, CreatedAt: now}
	r.Apply(fields)
	return r
}

// Apply replaces every user-supplied field. Omitted optional fields are cleared.
func (r *MedicalRecord) Apply(fields RecordFields) {
	r.PatientName = fields.PatientName
	r.Age = fields.Age
	r.BloodPressure = fields.BloodPressure
	r.Cholesterol = fields.Cholesterol
	r.Notes = fields.Notes
	r.Date = fields.Date
	r.UpdatedAt = time.Now().UTC()
}

// Fields returns the user-supplied part of the record.
func (r *MedicalRecord) Fields() RecordFields {
	return RecordFields{
		PatientName:   r.PatientName,
		Age:           r.Age,
		BloodPressure: r.BloodPressure,
		Cholesterol:   r.Cholesterol,
		Notes:         r.Notes,
		Date:          r.Date,
	}
}

// Clone returns a deep copy so callers can't alias stored pointers.
func (r *MedicalRecord) Clone() *MedicalRecord {
	c := *r
	if r.BloodPressure != nil {
		bp := *r.BloodPressure
		c.BloodPressure = &bp
	}
	if r.Cholesterol != nil {
		chol := *r.Cholesterol
		c.Cholesterol = &chol
	}
	if r.Notes != nil {
		notes := *r.Notes
		c.Notes = &notes
	}
	if r.Date != nil {
		d := *r.Date
		c.Date = &d
	}
	return &c
}

// Matches reports whether the patient name or notes contain search,
// ignoring case. An empty search matches everything.
func (r *MedicalRecord) Matches(search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(r.PatientName), needle) {
		return true
	}
	return r.Notes != nil && strings.Contains(strings.ToLower(*r.Notes), needle)
}

// SortByDateDesc orders records newest date first, then by ID descending.
// Records without a date come after every dated record.
func SortByDateDesc(records []*MedicalRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch {
		case a.Date == nil && b.Date == nil:
			return a.ID > b.ID
		case a.Date == nil:
			return false
		case b.Date == nil:
			return true
		case !a.Date.Equal(b.Date.Time):
			return a.Date.After(b.Date.Time)
		default:
			return a.ID > b.ID
		}
	})
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
