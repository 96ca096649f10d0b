package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Calibrations table - one row per calibration run, newest wins
		`CREATE TABLE IF NOT EXISTS calibrations (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL CHECK(kind IN ('wheel', 'bounds')),
			data TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		// Bindings table - key overrides per controller slot
		`CREATE TABLE IF NOT EXISTS bindings (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			slot TEXT NOT NULL,
			key TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE(mode, slot)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_calibrations_kind ON calibrations(kind, created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
