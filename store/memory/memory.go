// Package memory provides an in-memory store for tests and local
// development. It mirrors the contract of the durable stores: mutators
// run against deep copies, so a failed transaction leaves nothing
// behind, and a single mutex gives serializable per-employee semantics.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/bybuy30/leave-tracker/auth"
	"github.com/bybuy30/leave-tracker/ledger"
)

// Store keeps employees and admins in maps guarded by one mutex.
type Store struct {
	mu        sync.RWMutex
	employees map[string]*ledger.Employee
	admins    map[string]*auth.Admin // keyed by email

	broadcaster *ledger.Broadcaster
}

var (
	_ ledger.WatchStore = (*Store)(nil)
	_ auth.AdminStore   = (*Store)(nil)
)

func New() *Store {
	return &Store{
		employees:   make(map[string]*ledger.Employee),
		admins:      make(map[string]*auth.Admin),
		broadcaster: ledger.NewBroadcaster(),
	}
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

func (s *Store) Get(_ context.Context, id string) (*ledger.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emp, ok := s.employees[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return emp.Clone(), nil
}

func (s *Store) Create(_ context.Context, emp *ledger.Employee) error {
	s.mu.Lock()
	s.employees[emp.ID] = emp.Clone()
	s.mu.Unlock()

	s.broadcaster.Publish(ledger.ChangeEvent{Kind: ledger.ChangeCreated, Employee: emp.Clone()})
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	emp, ok := s.employees[id]
	if !ok {
		s.mu.Unlock()
		return ledger.ErrNotFound
	}
	delete(s.employees, id)
	s.mu.Unlock()

	s.broadcaster.Publish(ledger.ChangeEvent{Kind: ledger.ChangeDeleted, Employee: emp.Clone()})
	return nil
}

func (s *Store) List(_ context.Context, adminID string) ([]*ledger.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*ledger.Employee
	for _, emp := range s.employees {
		if emp.AdminID == adminID {
			out = append(out, emp.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// RunAtomic runs fn against a deep copy under the store lock. The copy
// only replaces the stored record if fn succeeds, so partial mutations
// from a failed fn are discarded wholesale.
func (s *Store) RunAtomic(_ context.Context, id string, fn func(*ledger.Employee) error) (*ledger.Employee, error) {
	s.mu.Lock()

	current, ok := s.employees[id]
	if !ok {
		s.mu.Unlock()
		return nil, ledger.ErrNotFound
	}

	working := current.Clone()
	if err := fn(working); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	s.employees[id] = working
	snapshot := working.Clone()
	s.mu.Unlock()

	s.broadcaster.Publish(ledger.ChangeEvent{Kind: ledger.ChangeUpdated, Employee: snapshot.Clone()})
	return snapshot, nil
}

// Watch streams change events for one admin's employees.
func (s *Store) Watch(ctx context.Context, adminID string) <-chan ledger.ChangeEvent {
	return s.broadcaster.Subscribe(ctx, adminID)
}

// =============================================================================
// ADMIN STORE
// =============================================================================

func (s *Store) CreateAdmin(_ context.Context, admin *auth.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.admins[admin.Email]; exists {
		return auth.ErrEmailTaken
	}
	clone := *admin
	s.admins[admin.Email] = &clone
	return nil
}

func (s *Store) AdminByEmail(_ context.Context, email string) (*auth.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	admin, ok := s.admins[email]
	if !ok {
		return nil, auth.ErrInvalidCredentials
	}
	clone := *admin
	return &clone, nil
}
