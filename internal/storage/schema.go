// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines tables for users and medical_records.
package storage

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS medical_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		patient_name TEXT NOT NULL,
		age INTEGER NOT NULL,
		blood_pressure TEXT,
		cholesterol INTEGER,
		notes TEXT,
		date TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_records_user ON medical_records(user_id);
	CREATE INDEX IF NOT EXISTS idx_records_user_date ON medical_records(user_id, date DESC, id DESC);
	`

	_, err := d.db.Exec(schema)
	return err
}
