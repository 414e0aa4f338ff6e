/*
Package postgres provides a PostgreSQL-backed employee store on pgx.

Same document model as the SQLite store: one JSON ledger document per
employee row. Per-employee serializability comes from SELECT ... FOR
UPDATE inside the RunAtomic transaction - two racing allocations for
one employee queue on the row lock and each mutator sees the previous
commit. Deadlocks and serialization failures are retried a few times
before surfacing as ledger.ErrTransientStore.

SEE ALSO:
  - ledger/store.go: Interface contract
  - store/sqlite:    Single-node equivalent
*/
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bybuy30/leave-tracker/auth"
	"github.com/bybuy30/leave-tracker/ledger"
)

const maxTxRetries = 3

// Store implements the storage interfaces over a pgx pool.
type Store struct {
	pool *pgxpool.Pool

	broadcaster *ledger.Broadcaster
}

var (
	_ ledger.WatchStore = (*Store)(nil)
	_ auth.AdminStore   = (*Store)(nil)
)

// New connects to the database and ensures the schema exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	s := &Store{pool: pool, broadcaster: ledger.NewBroadcaster()}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id         TEXT PRIMARY KEY,
		admin_id   TEXT NOT NULL,
		name       TEXT NOT NULL,
		doc        JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_employees_admin ON employees(admin_id, name);

	CREATE TABLE IF NOT EXISTS admins (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

func (s *Store) Get(ctx context.Context, id string) (*ledger.Employee, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM employees WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
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

	_, err = s.pool.Exec(ctx, `
		INSERT INTO employees (id, admin_id, name, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		emp.ID, emp.AdminID, emp.Name, doc, emp.CreatedAt, emp.UpdatedAt,
	)
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

	tag, err := s.pool.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return wrapStoreErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}

	s.broadcaster.Publish(ledger.ChangeEvent{Kind: ledger.ChangeDeleted, Employee: emp})
	return nil
}

func (s *Store) List(ctx context.Context, adminID string) ([]*ledger.Employee, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT doc FROM employees WHERE admin_id = $1 ORDER BY lower(name)`,
		adminID,
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer rows.Close()

	var out []*ledger.Employee
	for rows.Next() {
		var doc []byte
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

// RunAtomic locks the employee row, applies fn, and writes the updated
// document back in the same transaction.
func (s *Store) RunAtomic(ctx context.Context, id string, fn func(*ledger.Employee) error) (*ledger.Employee, error) {
	var result *ledger.Employee

	for attempt := 0; ; attempt++ {
		emp, err := s.runAtomicOnce(ctx, id, fn)
		if isRetryableTxErr(err) {
			if attempt < maxTxRetries {
				continue
			}
			return nil, fmt.Errorf("%w: %v", ledger.ErrTransientStore, err)
		}
		if err != nil {
			return nil, err
		}
		result = emp
		break
	}

	s.broadcaster.Publish(ledger.ChangeEvent{Kind: ledger.ChangeUpdated, Employee: result.Clone()})
	return result, nil
}

func (s *Store) runAtomicOnce(ctx context.Context, id string, fn func(*ledger.Employee) error) (*ledger.Employee, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer tx.Rollback(ctx)

	var doc []byte
	err = tx.QueryRow(ctx, `SELECT doc FROM employees WHERE id = $1 FOR UPDATE`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
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
	_, err = tx.Exec(ctx, `
		UPDATE employees SET admin_id = $1, name = $2, doc = $3, updated_at = $4 WHERE id = $5`,
		emp.AdminID, emp.Name, updated, emp.UpdatedAt, id,
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, wrapStoreErr(err)
	}
	return emp, nil
}

// Watch streams change events produced by this process's writes.
func (s *Store) Watch(ctx context.Context, adminID string) <-chan ledger.ChangeEvent {
	return s.broadcaster.Subscribe(ctx, adminID)
}

// =============================================================================
// ADMIN STORE
// =============================================================================

func (s *Store) CreateAdmin(ctx context.Context, admin *auth.Admin) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO admins (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		admin.ID, admin.Email, admin.PasswordHash, admin.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return auth.ErrEmailTaken
	}
	return wrapStoreErr(err)
}

func (s *Store) AdminByEmail(ctx context.Context, email string) (*auth.Admin, error) {
	var admin auth.Admin
	var createdAt time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at FROM admins WHERE email = $1`,
		email,
	).Scan(&admin.ID, &admin.Email, &admin.PasswordHash, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	admin.CreatedAt = createdAt
	return &admin, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func decodeEmployee(doc []byte) (*ledger.Employee, error) {
	var emp ledger.Employee
	if err := json.Unmarshal(doc, &emp); err != nil {
		return nil, fmt.Errorf("decode employee document: %w", err)
	}
	return &emp, nil
}

// isRetryableTxErr matches serialization failures (40001) and deadlocks
// (40P01), which resolve on retry.
func isRetryableTxErr(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01")
}

func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if isRetryableTxErr(err) {
		return err // handled by the retry loop before wrapping
	}
	return fmt.Errorf("%w: %v", ledger.ErrTransientStore, err)
}
