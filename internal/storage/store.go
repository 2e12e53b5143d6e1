package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jkrause/liftlog/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Collection keys. Each holds a JSON-serialized array; the theme key holds a
// bare string. Every mutation reads the full collection, applies one change,
// and writes the full collection back.
const (
	recordsKey = "maintenance_records_v1"
	shiftsKey  = "shifts_schedule_v1"
	themeKey   = "theme"
)

// Store persists the maintenance log collections in a SQLite key-value table.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "liftlog.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't
// been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- key-value plumbing ---

func (s *Store) getValue(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM collections WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) setValue(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO collections (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// loadCollection deserializes the JSON array stored under key. A missing key
// or a parse failure yields an empty slice; parse failures are logged, never
// propagated (the collection is treated as empty, matching the original's
// behavior when localStorage held garbage).
func loadCollection[T any](s *Store, key string) []T {
	raw, ok, err := s.getValue(key)
	if err != nil {
		slog.Warn("failed to load collection", "key", key, "error", err)
		return []T{}
	}
	if !ok || raw == "" {
		return []T{}
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		slog.Warn("failed to parse collection, treating as empty", "key", key, "error", err)
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

func saveCollection[T any](s *Store, key string, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("serializing %s: %w", key, err)
	}
	if err := s.setValue(key, string(data)); err != nil {
		return fmt.Errorf("persisting %s: %w", key, err)
	}
	return nil
}

// --- Maintenance records ---

// Records returns the full maintenance record collection.
func (s *Store) Records() []domain.MaintenanceRecord {
	return loadCollection[domain.MaintenanceRecord](s, recordsKey)
}

// CreateRecord appends one record, persists the full collection, and returns
// the new authoritative collection.
func (s *Store) CreateRecord(r domain.MaintenanceRecord) ([]domain.MaintenanceRecord, error) {
	records := append(s.Records(), r)
	if err := saveCollection(s, recordsKey, records); err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateRecord replaces the record with matching ID and persists. If no
// record with that ID exists the collection is returned unchanged; nothing
// is inserted.
func (s *Store) UpdateRecord(r domain.MaintenanceRecord) ([]domain.MaintenanceRecord, error) {
	records := s.Records()
	for i := range records {
		if records[i].ID == r.ID {
			records[i] = r
			break
		}
	}
	if err := saveCollection(s, recordsKey, records); err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteRecord removes the record with matching ID, persists, and returns the
// new collection. Deleting a nonexistent ID leaves the collection unchanged.
func (s *Store) DeleteRecord(id string) ([]domain.MaintenanceRecord, error) {
	records := s.Records()
	kept := records[:0]
	for _, r := range records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if err := saveCollection(s, recordsKey, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// --- Shifts ---

// Shifts returns the full shift collection.
func (s *Store) Shifts() []domain.Shift {
	return loadCollection[domain.Shift](s, shiftsKey)
}

// SaveShifts merges newShifts into the stored collection keyed by
// (date, shiftType). New entries overwrite existing entries sharing a key;
// the unioned result is persisted and returned in date order.
func (s *Store) SaveShifts(newShifts []domain.Shift) ([]domain.Shift, error) {
	current := s.Shifts()

	merged := make(map[string]domain.Shift, len(current)+len(newShifts))
	for _, sh := range current {
		merged[sh.Key()] = sh
	}
	for _, sh := range newShifts {
		merged[sh.Key()] = sh
	}

	result := make([]domain.Shift, 0, len(merged))
	for _, sh := range merged {
		result = append(result, sh)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].ShiftType < result[j].ShiftType
	})

	if err := saveCollection(s, shiftsKey, result); err != nil {
		return nil, err
	}
	return result, nil
}

// --- Theme preference ---

// Theme returns the stored theme preference, defaulting to "light".
func (s *Store) Theme() string {
	raw, ok, err := s.getValue(themeKey)
	if err != nil || !ok || raw == "" {
		return "light"
	}
	return raw
}

// SetTheme persists the theme preference ("dark" or "light").
func (s *Store) SetTheme(theme string) error {
	if theme != "dark" && theme != "light" {
		return fmt.Errorf("invalid theme %q", theme)
	}
	return s.setValue(themeKey, theme)
}
