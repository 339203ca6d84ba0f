// ABOUTME: Medical record CRUD operations for SQLite storage.
// ABOUTME: Every query is scoped by user_id so records never leak across owners.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/medrec/internal/models"
)

const recordColumns = `id, user_id, patient_name, age, blood_pressure, cholesterol, notes, date, created_at, updated_at`

// CreateRecord stores a new record and assigns its ID.
// A record that already carries an ID (import, migration) keeps it.
func (d *DB) CreateRecord(r *models.MedicalRecord) error {
	args := []any{
		r.OwnerID,
		r.PatientName,
		r.Age,
		r.BloodPressure,
		r.Cholesterol,
		r.Notes,
		formatDate(r.Date),
		r.CreatedAt.Format(time.RFC3339),
		r.UpdatedAt.Format(time.RFC3339),
	}

	query := `
		INSERT INTO medical_records (user_id, patient_name, age, blood_pressure, cholesterol, notes, date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if r.ID != 0 {
		query = `
			INSERT INTO medical_records (id, user_id, patient_name, age, blood_pressure, cholesterol, notes, date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		args = append([]any{r.ID}, args...)
	}

	result, err := d.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	r.ID = id
	return nil
}

// GetRecord retrieves one of owner's records by ID.
func (d *DB) GetRecord(ownerID, id int64) (*models.MedicalRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM medical_records WHERE id = ? AND user_id = ?`
	r, err := scanRecord(d.db.QueryRow(query, id, ownerID))
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	return r, nil
}

// UpdateRecord replaces the user-supplied fields of an existing record.
func (d *DB) UpdateRecord(r *models.MedicalRecord) error {
	query := `
		UPDATE medical_records
		SET patient_name = ?, age = ?, blood_pressure = ?, cholesterol = ?, notes = ?, date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`
	result, err := d.db.Exec(query,
		r.PatientName,
		r.Age,
		r.BloodPressure,
		r.Cholesterol,
		r.Notes,
		formatDate(r.Date),
		r.UpdatedAt.Format(time.RFC3339),
		r.ID,
		r.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update record %d: %w", r.ID, ErrNotFound)
	}
	return nil
}

// DeleteRecord removes one of owner's records.
func (d *DB) DeleteRecord(ownerID, id int64) error {
	result, err := d.db.Exec("DELETE FROM medical_records WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete record %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListRecords retrieves all records belonging to owner.
// Results are sorted by date descending, then ID descending.
func (d *DB) ListRecords(ownerID int64) ([]*models.MedicalRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM medical_records WHERE user_id = ?`
	rows, err := d.db.Query(query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*models.MedicalRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	models.SortByDateDesc(records)
	return records, nil
}

// scanRecord scans a single row into a MedicalRecord.
func scanRecord(row rowScanner) (*models.MedicalRecord, error) {
	var r models.MedicalRecord
	var bp, notes, date sql.NullString
	var chol sql.NullInt64
	var createdAt, updatedAt string

	err := row.Scan(&r.ID, &r.OwnerID, &r.PatientName, &r.Age, &bp, &chol, &notes, &date, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan record: %w", err)
	}

	if bp.Valid {
		r.BloodPressure = &bp.String
	}
	if chol.Valid {
		c := int(chol.Int64)
		r.Cholesterol = &c
	}
	if notes.Valid {
		r.Notes = &notes.String
	}
	if date.Valid {
		if parsed, err := models.ParseDate(date.String); err == nil {
			r.Date = &parsed
		}
	}
	r.CreatedAt = parseTimestamp(createdAt)
	r.UpdatedAt = parseTimestamp(updatedAt)

	return &r, nil
}

func formatDate(d *models.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}
