// ABOUTME: In-memory Repository implementation guarded by a RWMutex.
// ABOUTME: Used for the "memory" backend and for fast tests.
package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/harperreed/medrec/internal/models"
)

// MemoryStore keeps users and records in maps. Values are cloned on the way
// in and out so callers never share pointers with the stored state.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[int64]*models.User
	records      map[int64]*models.MedicalRecord
	nextUserID   int64
	nextRecordID int64
}

// Compile-time check that MemoryStore implements Repository.
var _ Repository = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[int64]*models.User),
		records: make(map[int64]*models.MedicalRecord),
	}
}

// CreateUser stores a new user and assigns its ID.
func (s *MemoryStore) CreateUser(u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return fmt.Errorf("create user %s: %w", u.Username, ErrConflict)
		}
	}
	if u.ID == 0 {
		s.nextUserID++
		u.ID = s.nextUserID
	} else if _, taken := s.users[u.ID]; taken {
		return fmt.Errorf("create user %d: %w", u.ID, ErrConflict)
	} else if u.ID > s.nextUserID {
		s.nextUserID = u.ID
	}

	c := *u
	s.users[u.ID] = &c
	return nil
}

// GetUser retrieves a user by ID.
func (s *MemoryStore) GetUser(id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("get user %d: %w", id, ErrNotFound)
	}
	c := *u
	return &c, nil
}

// GetUserByUsername retrieves a user by username.
func (s *MemoryStore) GetUserByUsername(username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, fmt.Errorf("get user %s: %w", username, ErrNotFound)
}

// ListUsers returns all users ordered by ID.
func (s *MemoryStore) ListUsers() ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		c := *u
		users = append(users, &c)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// CreateRecord stores a new record and assigns its ID.
func (s *MemoryStore) CreateRecord(r *models.MedicalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == 0 {
		s.nextRecordID++
		r.ID = s.nextRecordID
	} else if _, taken := s.records[r.ID]; taken {
		return fmt.Errorf("create record %d: %w", r.ID, ErrConflict)
	} else if r.ID > s.nextRecordID {
		s.nextRecordID = r.ID
	}

	s.records[r.ID] = r.Clone()
	return nil
}

// GetRecord retrieves one of owner's records by ID.
func (s *MemoryStore) GetRecord(ownerID, id int64) (*models.MedicalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok || r.OwnerID != ownerID {
		return nil, fmt.Errorf("get record %d: %w", id, ErrNotFound)
	}
	return r.Clone(), nil
}

// UpdateRecord replaces the user-supplied fields of an existing record.
func (s *MemoryStore) UpdateRecord(r *models.MedicalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[r.ID]
	if !ok || existing.OwnerID != r.OwnerID {
		return fmt.Errorf("update record %d: %w", r.ID, ErrNotFound)
	}

	updated := r.Clone()
	updated.CreatedAt = existing.CreatedAt
	s.records[r.ID] = updated
	return nil
}

// DeleteRecord removes one of owner's records.
func (s *MemoryStore) DeleteRecord(ownerID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok || r.OwnerID != ownerID {
		return fmt.Errorf("delete record %d: %w", id, ErrNotFound)
	}
	delete(s.records, id)
	return nil
}

// ListRecords retrieves all records belonging to owner, newest date first.
func (s *MemoryStore) ListRecords(ownerID int64) ([]*models.MedicalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*models.MedicalRecord
	for _, r := range s.records {
		if r.OwnerID == ownerID {
			records = append(records, r.Clone())
		}
	}
	models.SortByDateDesc(records)
	return records, nil
}

// GetAllData retrieves all data for export.
func (s *MemoryStore) GetAllData() (*ExportData, error) {
	return CollectAll(s)
}

// ImportData imports data from an export file.
func (s *MemoryStore) ImportData(data *ExportData) error {
	return Restore(s, data)
}

// Close releases resources. For MemoryStore this is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
