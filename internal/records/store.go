// ABOUTME: RecordStore: owner-scoped CRUD, search and ordering of medical records.
// ABOUTME: Validates input and surfaces NotFound/validation errors distinctly.
package records

import (
	"errors"
	"fmt"

	"github.com/harperreed/medrec/internal/models"
	"github.com/harperreed/medrec/internal/storage"
)

// Repository is the storage the store needs. storage.Repository satisfies it.
type Repository interface {
	CreateRecord(r *models.MedicalRecord) error
	GetRecord(ownerID, id int64) (*models.MedicalRecord, error)
	UpdateRecord(r *models.MedicalRecord) error
	DeleteRecord(ownerID, id int64) error
	ListRecords(ownerID int64) ([]*models.MedicalRecord, error)
}

// Store maintains each user's collection of medical records.
type Store struct {
	repo Repository
}

// NewStore creates a Store backed by repo.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// Create validates fields and stores a new record for owner.
func (s *Store) Create(ownerID int64, fields models.RecordFields) (*models.MedicalRecord, error) {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	r := models.NewRecord(ownerID, fields)
	if err := s.repo.CreateRecord(r); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	return r, nil
}

// Get returns one of owner's records. The error wraps storage.ErrNotFound
// when the id is absent or belongs to someone else.
func (s *Store) Get(ownerID, id int64) (*models.MedicalRecord, error) {
	r, err := s.repo.GetRecord(ownerID, id)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Update replaces every user-supplied field of an existing record.
// Optional fields left out of fields are cleared.
func (s *Store) Update(ownerID, id int64, fields models.RecordFields) (*models.MedicalRecord, error) {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	r, err := s.repo.GetRecord(ownerID, id)
	if err != nil {
		return nil, err
	}

	r.Apply(fields)
	if err := s.repo.UpdateRecord(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete hard-deletes one of owner's records.
func (s *Store) Delete(ownerID, id int64) error {
	return s.repo.DeleteRecord(ownerID, id)
}

// List returns owner's records whose patient name or notes contain search
// (case-insensitive), newest date first with ties broken by id descending.
// Records without a date come last. An empty search returns everything.
func (s *Store) List(ownerID int64, search string) ([]*models.MedicalRecord, error) {
	all, err := s.repo.ListRecords(ownerID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	matched := make([]*models.MedicalRecord, 0, len(all))
	for _, r := range all {
		if r.Matches(search) {
			matched = append(matched, r)
		}
	}
	models.SortByDateDesc(matched)
	return matched, nil
}

// Snapshot returns every record owner has, in list order.
func (s *Store) Snapshot(ownerID int64) ([]*models.MedicalRecord, error) {
	return s.List(ownerID, "")
}

// IsNotFound reports whether err means the record does not exist for the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
