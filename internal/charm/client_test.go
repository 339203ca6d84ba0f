// ABOUTME: Unit tests for Charm-based user and record storage.
// ABOUTME: Runs against an in-memory fake of the KV store.
package charm

import (
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v3"

	"github.com/harperreed/medrec/internal/models"
	"github.com/harperreed/medrec/internal/storage"
)

type fakeKV struct {
	mu       sync.Mutex
	data     map[string][]byte
	readOnly bool
	syncs    int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (f *fakeKV) Set(key, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (f *fakeKV) Get(key []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[string(key)]
	if !ok {
		return nil, badger.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeKV) Delete(key []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, string(key))
	return nil
}

func (f *fakeKV) Keys() ([][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.data))
	for k := range f.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = []byte(k)
	}
	return out, nil
}

func (f *fakeKV) Sync() error      { f.syncs++; return nil }
func (f *fakeKV) Reset() error     { f.data = make(map[string][]byte); return nil }
func (f *fakeKV) IsReadOnly() bool { return f.readOnly }
func (f *fakeKV) Close() error     { return nil }

func setupClient(t *testing.T) (*Client, *fakeKV) {
	t.Helper()
	kv := newFakeKV()
	return newClient(kv, true), kv
}

func datePtr(s string) *models.Date {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func TestIDKeyOrdering(t *testing.T) {
	if idKey(RecordPrefix, 9) >= idKey(RecordPrefix, 10) {
		t.Error("expected key for 9 to sort before key for 10")
	}
	if got := idKey(UserPrefix, 42); got != "user:00000000000000000042" {
		t.Errorf("idKey = %q", got)
	}
}

func TestUserLifecycle(t *testing.T) {
	c, kv := setupClient(t)

	alice := models.NewUser("alice", "hash")
	if err := c.CreateUser(alice); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if alice.ID != 1 {
		t.Errorf("first user ID = %d, want 1", alice.ID)
	}
	if kv.syncs == 0 {
		t.Error("expected a sync after write")
	}

	if err := c.CreateUser(models.NewUser("alice", "x")); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate username: err = %v", err)
	}

	got, err := c.GetUserByUsername("alice")
	if err != nil || got.ID != alice.ID {
		t.Errorf("GetUserByUsername = %v, %v", got, err)
	}
	if _, err := c.GetUser(99); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetUser missing: err = %v", err)
	}
}

func TestRecordLifecycle(t *testing.T) {
	c, _ := setupClient(t)
	notes := "first"

	r := models.NewRecord(1, models.RecordFields{PatientName: "Jane", Age: 30, Notes: &notes, Date: datePtr("2024-01-01")})
	if err := c.CreateRecord(r); err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}

	got, err := c.GetRecord(1, r.ID)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if got.PatientName != "Jane" || got.Date == nil || got.Date.String() != "2024-01-01" {
		t.Errorf("got %+v", got)
	}
	if _, err := c.GetRecord(2, r.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetRecord other owner: err = %v", err)
	}

	got.Apply(models.RecordFields{PatientName: "Jane", Age: 31})
	if err := c.UpdateRecord(got); err != nil {
		t.Fatalf("UpdateRecord failed: %v", err)
	}
	again, _ := c.GetRecord(1, r.ID)
	if again.Notes != nil || again.Age != 31 {
		t.Errorf("update not applied: %+v", again)
	}

	if err := c.DeleteRecord(2, r.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeleteRecord other owner: err = %v", err)
	}
	if err := c.DeleteRecord(1, r.ID); err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	if _, err := c.GetRecord(1, r.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetRecord after delete: err = %v", err)
	}
}

func TestListRecordsOrderAndScope(t *testing.T) {
	c, _ := setupClient(t)

	for _, f := range []struct {
		id    int64
		owner int64
		date  string
	}{
		{5, 1, "2024-01-01"},
		{3, 1, "2024-01-02"},
		{4, 2, "2024-01-03"},
	} {
		r := models.NewRecord(f.owner, models.RecordFields{PatientName: "P", Age: 1, Date: datePtr(f.date)})
		r.ID = f.id
		if err := c.CreateRecord(r); err != nil {
			t.Fatalf("CreateRecord failed: %v", err)
		}
	}

	list, err := c.ListRecords(1)
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != 3 || list[1].ID != 5 {
		t.Errorf("ListRecords = %v", list)
	}

	// Explicit IDs push the counter forward.
	next := models.NewRecord(1, models.RecordFields{PatientName: "N", Age: 1})
	if err := c.CreateRecord(next); err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}
	if next.ID != 6 {
		t.Errorf("next ID = %d, want 6", next.ID)
	}

	dup := models.NewRecord(1, models.RecordFields{PatientName: "D", Age: 1})
	dup.ID = 3
	if err := c.CreateRecord(dup); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate ID: err = %v", err)
	}
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	c, kv := setupClient(t)
	kv.readOnly = true

	err := c.CreateRecord(models.NewRecord(1, models.RecordFields{PatientName: "P", Age: 1}))
	if !errors.Is(err, errReadOnly) {
		t.Errorf("CreateRecord read-only: err = %v", err)
	}
	if err := c.Sync(); err != nil {
		t.Errorf("Sync in read-only mode should be a no-op, got %v", err)
	}
}

func TestMigrateIntoCharm(t *testing.T) {
	src := storage.NewMemoryStore()
	u := models.NewUser("alice", "hash")
	if err := src.CreateUser(u); err != nil {
		t.Fatal(err)
	}
	if err := src.CreateRecord(models.NewRecord(u.ID, models.RecordFields{PatientName: "P", Age: 1})); err != nil {
		t.Fatal(err)
	}

	dst, _ := setupClient(t)
	summary, err := storage.MigrateData(src, dst)
	if err != nil {
		t.Fatalf("MigrateData failed: %v", err)
	}
	if summary.Users != 1 || summary.Records != 1 {
		t.Errorf("summary = %+v", summary)
	}

	all, err := dst.GetAllData()
	if err != nil {
		t.Fatalf("GetAllData failed: %v", err)
	}
	if len(all.Users) != 1 || len(all.Records) != 1 {
		t.Errorf("got %d users / %d records", len(all.Users), len(all.Records))
	}
}
