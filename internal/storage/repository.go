// ABOUTME: Repository interface for medical record storage.
// ABOUTME: Defines the contract for users and owner-scoped record CRUD.
package storage

import (
	"errors"

	"github.com/harperreed/medrec/internal/models"
)

var (
	// ErrNotFound means the id does not exist or is not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a unique value (username) is already taken.
	ErrConflict = errors.New("already exists")
)

// Repository defines the storage interface for medrec data.
// This interface allows swapping implementations (e.g., for testing).
type Repository interface {
	// User operations
	CreateUser(u *models.User) error
	GetUser(id int64) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	ListUsers() ([]*models.User, error)

	// Record operations. Every call is scoped to an owner.
	CreateRecord(r *models.MedicalRecord) error
	GetRecord(ownerID, id int64) (*models.MedicalRecord, error)
	UpdateRecord(r *models.MedicalRecord) error
	DeleteRecord(ownerID, id int64) error
	ListRecords(ownerID int64) ([]*models.MedicalRecord, error)

	// Export/Import
	GetAllData() (*ExportData, error)
	ImportData(data *ExportData) error

	// Lifecycle
	Close() error
}
