// ABOUTME: Backup envelope shared by every storage backend.
// ABOUTME: Collects all users and records for export and restores them on import.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/medrec/internal/models"
)

// ExportVersion is the current backup format version.
const ExportVersion = "1.0"

// ExportData represents the full backup format for medrec data.
type ExportData struct {
	Version    string                  `json:"version" yaml:"version"`
	ExportedAt time.Time               `json:"exported_at" yaml:"exported_at"`
	Tool       string                  `json:"tool" yaml:"tool"`
	Users      []*models.User          `json:"users" yaml:"users"`
	Records    []*models.MedicalRecord `json:"records" yaml:"records"`
}

// Lister is the read side needed to collect a full backup.
type Lister interface {
	ListUsers() ([]*models.User, error)
	ListRecords(ownerID int64) ([]*models.MedicalRecord, error)
}

// Creator is the write side needed to restore a backup.
type Creator interface {
	CreateUser(u *models.User) error
	CreateRecord(r *models.MedicalRecord) error
}

// CollectAll gathers every user and every record from src.
func CollectAll(src Lister) (*ExportData, error) {
	users, err := src.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	data := &ExportData{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC(),
		Tool:       "medrec",
		Users:      users,
	}
	for _, u := range users {
		records, err := src.ListRecords(u.ID)
		if err != nil {
			return nil, fmt.Errorf("list records for user %d: %w", u.ID, err)
		}
		data.Records = append(data.Records, records...)
	}
	return data, nil
}

// Restore writes users first and records second, keeping their IDs.
func Restore(dst Creator, data *ExportData) error {
	for _, u := range data.Users {
		if err := dst.CreateUser(u); err != nil {
			return fmt.Errorf("import user %s: %w", u.Username, err)
		}
	}
	for _, r := range data.Records {
		if err := dst.CreateRecord(r); err != nil {
			return fmt.Errorf("import record %d: %w", r.ID, err)
		}
	}
	return nil
}

// GetAllData retrieves all data for export.
func (d *DB) GetAllData() (*ExportData, error) {
	return CollectAll(d)
}

// ImportData imports data from an export file.
func (d *DB) ImportData(data *ExportData) error {
	return Restore(d, data)
}

// ImportJSON imports a full backup into repo from JSON bytes.
func ImportJSON(repo Repository, data []byte) error {
	var exportData ExportData
	if err := json.Unmarshal(data, &exportData); err != nil {
		return fmt.Errorf("unmarshal JSON: %w", err)
	}
	return repo.ImportData(&exportData)
}

// ExportJSON exports a full backup of repo as indented JSON.
func ExportJSON(repo Repository) ([]byte, error) {
	data, err := repo.GetAllData()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}
