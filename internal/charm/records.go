// ABOUTME: Medical record CRUD operations for Charm KV storage.
// ABOUTME: Uses ID-keyed entries and client-side owner filtering.
package charm

import (
	"errors"
	"fmt"

	"github.com/harperreed/medrec/internal/models"
	"github.com/harperreed/medrec/internal/storage"
)

// CreateRecord stores a new record, assigning an ID unless one is already set.
func (c *Client) CreateRecord(r *models.MedicalRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.ID == 0 {
		id, err := c.nextID(recordSeqKey)
		if err != nil {
			return fmt.Errorf("create record: %w", err)
		}
		r.ID = id
	} else {
		if _, err := c.get(idKey(RecordPrefix, r.ID)); err == nil {
			return fmt.Errorf("create record %d: %w", r.ID, storage.ErrConflict)
		} else if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("create record %d: %w", r.ID, err)
		}
		if err := c.raiseSeq(recordSeqKey, r.ID); err != nil {
			return fmt.Errorf("create record: %w", err)
		}
	}

	if err := c.put(idKey(RecordPrefix, r.ID), r); err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	c.syncIfEnabled()
	return nil
}

// GetRecord retrieves one of owner's records by ID.
func (c *Client) GetRecord(ownerID, id int64) (*models.MedicalRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, err := c.ownedRecord(ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	return r, nil
}

// UpdateRecord replaces the user-supplied fields of an existing record.
func (c *Client) UpdateRecord(r *models.MedicalRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.ownedRecord(r.OwnerID, r.ID)
	if err != nil {
		return fmt.Errorf("update record %d: %w", r.ID, err)
	}

	updated := r.Clone()
	updated.CreatedAt = existing.CreatedAt
	if err := c.put(idKey(RecordPrefix, r.ID), updated); err != nil {
		return fmt.Errorf("update record %d: %w", r.ID, err)
	}
	c.syncIfEnabled()
	return nil
}

// DeleteRecord removes one of owner's records.
func (c *Client) DeleteRecord(ownerID, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.ownedRecord(ownerID, id); err != nil {
		return fmt.Errorf("delete record %d: %w", id, err)
	}
	if err := c.remove(idKey(RecordPrefix, id)); err != nil {
		return fmt.Errorf("delete record %d: %w", id, err)
	}
	c.syncIfEnabled()
	return nil
}

// ListRecords retrieves all records belonging to owner, newest date first.
func (c *Client) ListRecords(ownerID int64) ([]*models.MedicalRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	allData, err := c.listByPrefix(RecordPrefix)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	var records []*models.MedicalRecord
	for _, data := range allData {
		r, err := unmarshalJSON[models.MedicalRecord](data)
		if err != nil {
			continue // Skip invalid entries
		}
		if r.OwnerID == ownerID {
			records = append(records, r)
		}
	}
	models.SortByDateDesc(records)
	return records, nil
}

// GetAllData retrieves all data for export.
func (c *Client) GetAllData() (*storage.ExportData, error) {
	return storage.CollectAll(c)
}

// ImportData imports data from an export file.
func (c *Client) ImportData(data *storage.ExportData) error {
	return storage.Restore(c, data)
}

// ownedRecord loads a record and hides it from anyone but its owner.
// Callers hold at least the read lock.
func (c *Client) ownedRecord(ownerID, id int64) (*models.MedicalRecord, error) {
	data, err := c.get(idKey(RecordPrefix, id))
	if err != nil {
		return nil, err
	}
	r, err := unmarshalJSON[models.MedicalRecord](data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	if r.OwnerID != ownerID {
		return nil, storage.ErrNotFound
	}
	return r, nil
}
