// ABOUTME: Data migration between medrec storage backends.
// ABOUTME: Copies users and their records from source to destination keeping IDs.

package storage

import "fmt"

// MigrateSummary holds counts of migrated entities.
type MigrateSummary struct {
	Users   int
	Records int
}

// MigrateData copies all data from src to dst storage.
// Users are created first so record ownership stays valid in backends
// that enforce it. The destination should be empty before calling this.
func MigrateData(src, dst Repository) (*MigrateSummary, error) {
	summary := &MigrateSummary{}

	users, err := src.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("list source users: %w", err)
	}

	for _, u := range users {
		if err := dst.CreateUser(u); err != nil {
			return nil, fmt.Errorf("create user %s: %w", u.Username, err)
		}
		summary.Users++
	}

	for _, u := range users {
		records, err := src.ListRecords(u.ID)
		if err != nil {
			return nil, fmt.Errorf("list source records for %s: %w", u.Username, err)
		}
		for _, r := range records {
			if err := dst.CreateRecord(r); err != nil {
				return nil, fmt.Errorf("create record %d: %w", r.ID, err)
			}
			summary.Records++
		}
	}

	return summary, nil
}
