/*
Package sqlite provides a SQLite-backed employee store.

PURPOSE:
  Implements ledger.EmployeeStore, ledger.WatchStore, and
  auth.AdminStore over a single database file. The per-employee ledger
  is stored as one JSON document per row - the store is a document
  store with an atomic read-modify-write primitive, which is exactly
  the contract the allocation engine requires.

ATOMICITY:
  RunAtomic opens a write transaction around SELECT / mutate / UPDATE.
  A store-level mutex serializes writers (SQLite allows one writer at a
  time anyway), so the mutator always sees the latest committed
  document and the check-then-write sequence can never race. Busy and
  locked errors surface as ledger.ErrTransientStore.

WAL MODE:
  Opened with WAL for concurrent readers and better crash recovery,
  plus a busy timeout so short contention waits instead of failing.

KEY TABLES:
  employees: id, admin_id, name (for ordering), doc (JSON ledger
             document), created_at, updated_at
  admins:    id, email (unique), password_hash, created_at

SEE ALSO:
  - ledger/store.go: Interface contract
  - store/memory:    In-memory equivalent for tests
  - store/postgres:  Same document model on PostgreSQL
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/bybuy30/leave-tracker/auth"
	"github.com/bybuy30/leave-tracker/ledger"
)

// Store implements the storage interfaces over a SQLite file.
type Store struct {
	db *sql.DB
	mu sync.Mutex // serializes writers

	broadcaster *ledger.Broadcaster
}

var (
	_ ledger.WatchStore = (*Store)(nil)
	_ auth.AdminStore   = (*Store)(nil)
)

// New opens (and migrates) the database at path. Use ":memory:" for an
// in-memory database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, broadcaster: ledger.NewBroadcaster()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id         TEXT PRIMARY KEY,
		admin_id   TEXT NOT NULL,
		name       TEXT NOT NULL,
		doc        TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_employees_admin ON employees(admin_id, name);

	CREATE TABLE IF NOT EXISTS admins (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

func (s *Store) Get(ctx context.Context, id string) (*ledger.Employee, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM employees WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return decodeEmployee(doc)
}

func (s *Store) Create(ctx context.Context, emp *ledger.Employee) error {
	doc, err := json.Marshal(emp)
	if err != nil {
		return err
	}

	s.mu.Lock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO employees (id, admin_id, name, doc, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		emp.ID, emp.AdminID, emp.Name, string(doc),
		emp.CreatedAt.UTC().Format(time.RFC3339Nano),
		emp.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	s.mu.Unlock()
	if err != nil {
		return wrapStoreErr(err)
	}

	s.broadcaster.Publish(ledger.ChangeEvent{Kind: ledger.ChangeCreated, Employee: emp.Clone()})
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	emp, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	_, err = s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	s.mu.Unlock()
	if err != nil {
		return wrapStoreErr(err)
	}

	s.broadcaster.Publish(ledger.ChangeEvent{Kind: ledger.ChangeDeleted, Employee: emp})
	return nil
}

func (s *Store) List(ctx context.Context, adminID string) ([]*ledger.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc FROM employees WHERE admin_id = ? ORDER BY name COLLATE NOCASE`,
		adminID,
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer rows.Close()

	var out []*ledger.Employee
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, wrapStoreErr(err)
		}
		emp, err := decodeEmployee(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

// RunAtomic reads the document, applies fn, and writes the result back
// inside one SQL transaction. An fn error rolls everything back and is
// returned verbatim.
func (s *Store) RunAtomic(ctx context.Context, id string, fn func(*ledger.Employee) error) (*ledger.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer tx.Rollback()

	var doc string
	err = tx.QueryRowContext(ctx, `SELECT doc FROM employees WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	emp, err := decodeEmployee(doc)
	if err != nil {
		return nil, err
	}

	if err := fn(emp); err != nil {
		return nil, err
	}

	updated, err := json.Marshal(emp)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE employees SET admin_id = ?, name = ?, doc = ?, updated_at = ? WHERE id = ?`,
		emp.AdminID, emp.Name, string(updated),
		emp.UpdatedAt.UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, wrapStoreErr(err)
	}

	s.broadcaster.Publish(ledger.ChangeEvent{Kind: ledger.ChangeUpdated, Employee: emp.Clone()})
	return emp, nil
}

// Watch streams change events for one admin's employees. Events are
// produced by this process's writes; multi-process deployments should
// use the PostgreSQL store.
func (s *Store) Watch(ctx context.Context, adminID string) <-chan ledger.ChangeEvent {
	return s.broadcaster.Subscribe(ctx, adminID)
}

// =============================================================================
// ADMIN STORE
// =============================================================================

func (s *Store) CreateAdmin(ctx context.Context, admin *auth.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admins (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		admin.ID, admin.Email, admin.PasswordHash,
		admin.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if isUniqueViolation(err) {
		return auth.ErrEmailTaken
	}
	return wrapStoreErr(err)
}

func (s *Store) AdminByEmail(ctx context.Context, email string) (*auth.Admin, error) {
	var admin auth.Admin
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at FROM admins WHERE email = ?`,
		email,
	).Scan(&admin.ID, &admin.Email, &admin.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	admin.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &admin, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func decodeEmployee(doc string) (*ledger.Employee, error) {
	var emp ledger.Employee
	if err := json.Unmarshal([]byte(doc), &emp); err != nil {
		return nil, fmt.Errorf("decode employee document: %w", err)
	}
	return &emp, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// wrapStoreErr marks infrastructure failures as transient so callers
// can retry the whole operation.
func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%w: %v", ledger.ErrTransientStore, err)
	}
	if strings.Contains(err.Error(), "database is locked") {
		return fmt.Errorf("%w: %v", ledger.ErrTransientStore, err)
	}
	return err
}
