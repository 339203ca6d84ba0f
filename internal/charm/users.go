// ABOUTME: User account operations for Charm KV storage.
// ABOUTME: Usernames are unique; IDs come from a synced counter key.
package charm

import (
	"fmt"
	"sort"

	"github.com/harperreed/medrec/internal/models"
	"github.com/harperreed/medrec/internal/storage"
)

// CreateUser stores a new user, assigning an ID unless one is already set.
func (c *Client) CreateUser(u *models.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	users, err := c.allUsers()
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	for _, existing := range users {
		if existing.Username == u.Username {
			return fmt.Errorf("create user %s: %w", u.Username, storage.ErrConflict)
		}
		if u.ID != 0 && existing.ID == u.ID {
			return fmt.Errorf("create user %d: %w", u.ID, storage.ErrConflict)
		}
	}

	if u.ID == 0 {
		id, err := c.nextID(userSeqKey)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		u.ID = id
	} else if err := c.raiseSeq(userSeqKey, u.ID); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	if err := c.put(idKey(UserPrefix, u.ID), u); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	c.syncIfEnabled()
	return nil
}

// GetUser retrieves a user by ID.
func (c *Client) GetUser(id int64) (*models.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := c.get(idKey(UserPrefix, id))
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	u, err := unmarshalJSON[models.User](data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return u, nil
}

// GetUserByUsername retrieves a user by username.
func (c *Client) GetUserByUsername(username string) (*models.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	users, err := c.allUsers()
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", username, err)
	}
	for _, u := range users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, fmt.Errorf("get user %s: %w", username, storage.ErrNotFound)
}

// ListUsers returns all users ordered by ID.
func (c *Client) ListUsers() ([]*models.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	users, err := c.allUsers()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (c *Client) allUsers() ([]*models.User, error) {
	allData, err := c.listByPrefix(UserPrefix)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, len(allData))
	for _, data := range allData {
		u, err := unmarshalJSON[models.User](data)
		if err != nil {
			continue // Skip invalid entries
		}
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}
