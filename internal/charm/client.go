// ABOUTME: Charm KV client wrapper for medical record storage.
// ABOUTME: Provides thread-safe initialization and automatic cloud sync.
package charm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"

	"github.com/harperreed/medrec/internal/storage"
)

const (
	dbName           = "medrec"
	defaultCharmHost = "charm.2389.dev"

	UserPrefix   = "user:"
	RecordPrefix = "record:"

	userSeqKey   = "seq:user"
	recordSeqKey = "seq:record"
)

var errReadOnly = errors.New("cannot write: database is locked by another process (MCP server?)")

// kvStore is the subset of *kv.KV the client uses.
type kvStore interface {
	Set(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Reset() error
	IsReadOnly() bool
	Close() error
}

var (
	globalClient *Client
	clientOnce   sync.Once
	clientErr    error
)

// Client stores users and records in a Charm KV database.
type Client struct {
	kv       kvStore
	autoSync bool
	mu       sync.RWMutex
}

// Compile-time check that Client implements storage.Repository.
var _ storage.Repository = (*Client)(nil)

// InitClient initializes the global Charm client.
// Thread-safe; can be called multiple times.
func InitClient() (*Client, error) {
	clientOnce.Do(func() {
		if os.Getenv("CHARM_HOST") == "" {
			if err := os.Setenv("CHARM_HOST", defaultCharmHost); err != nil {
				clientErr = err
				return
			}
		}

		db, err := kv.OpenWithDefaultsFallback(dbName)
		if err != nil {
			clientErr = err
			return
		}

		globalClient = newClient(db, true)

		// Pull remote data on startup (skip in read-only mode)
		if !db.IsReadOnly() {
			_ = db.Sync()
		}
	})

	return globalClient, clientErr
}

func newClient(store kvStore, autoSync bool) *Client {
	return &Client{kv: store, autoSync: autoSync}
}

// Close closes the KV database connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv != nil {
		return c.kv.Close()
	}
	return nil
}

// IsReadOnly returns true if the database is open in read-only mode.
// This happens when another process (like an MCP server) holds the lock.
func (c *Client) IsReadOnly() bool {
	return c.kv.IsReadOnly()
}

// Sync synchronizes local state with Charm Cloud.
func (c *Client) Sync() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.kv.IsReadOnly() {
		return nil
	}
	return c.kv.Sync()
}

// syncIfEnabled calls Sync if autoSync is enabled. Callers hold the write lock.
func (c *Client) syncIfEnabled() {
	if c.autoSync && !c.kv.IsReadOnly() {
		_ = c.kv.Sync()
	}
}

// SetAutoSync enables or disables automatic sync after writes.
func (c *Client) SetAutoSync(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoSync = enabled
}

// ID returns the Charm user ID for the current account.
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("create charm client: %w", err)
	}
	return cc.ID()
}

// Reset wipes local data and rebuilds from Charm Cloud.
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Reset()
}

// get reads a key. Callers hold at least the read lock.
func (c *Client) get(key string) ([]byte, error) {
	data, err := c.kv.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	return data, err
}

// put writes a key. Callers hold the write lock.
func (c *Client) put(key string, v any) error {
	if c.kv.IsReadOnly() {
		return errReadOnly
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return c.kv.Set([]byte(key), data)
}

// remove deletes a key. Callers hold the write lock.
func (c *Client) remove(key string) error {
	if c.kv.IsReadOnly() {
		return errReadOnly
	}
	return c.kv.Delete([]byte(key))
}

// listByPrefix returns all values whose keys start with prefix.
// Callers hold at least the read lock.
func (c *Client) listByPrefix(prefix string) ([][]byte, error) {
	keys, err := c.kv.Keys()
	if err != nil {
		return nil, err
	}

	var results [][]byte
	prefixBytes := []byte(prefix)
	for _, key := range keys {
		if bytes.HasPrefix(key, prefixBytes) {
			val, err := c.kv.Get(key)
			if err != nil {
				return nil, err
			}
			results = append(results, val)
		}
	}
	return results, nil
}

// nextID bumps the counter at seqKey and returns the new value.
// Callers hold the write lock.
func (c *Client) nextID(seqKey string) (int64, error) {
	current, err := c.readSeq(seqKey)
	if err != nil {
		return 0, err
	}
	next := current + 1
	if err := c.put(seqKey, next); err != nil {
		return 0, err
	}
	return next, nil
}

// raiseSeq makes sure the counter at seqKey is at least id, so imported
// records keep their IDs and new ones continue after them.
func (c *Client) raiseSeq(seqKey string, id int64) error {
	current, err := c.readSeq(seqKey)
	if err != nil {
		return err
	}
	if id <= current {
		return nil
	}
	return c.put(seqKey, id)
}

func (c *Client) readSeq(seqKey string) (int64, error) {
	data, err := c.get(seqKey)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", seqKey, err)
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return 0, fmt.Errorf("parse %s: %w", seqKey, err)
	}
	return n, nil
}

// unmarshalJSON is a helper to unmarshal JSON data.
func unmarshalJSON[T any](data []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// idKey builds a key whose lexical order matches numeric order.
func idKey(prefix string, id int64) string {
	return prefix + fmt.Sprintf("%020d", id)
}
