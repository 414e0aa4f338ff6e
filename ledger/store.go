/*
store.go - Persistence contract for employee ledgers

PURPOSE:
  Defines the interface between the allocation engine and the record
  store. The store is modeled as a transactional document store keyed
  by employee ID, with one atomic read-modify-write primitive. No
  particular database transaction API is assumed.

ATOMICITY CONTRACT:
  RunAtomic(id, fn) must be all-or-nothing and serializable per
  employee: fn observes a consistent snapshot, and either every change
  it makes is committed or none is. Implementations may use pessimistic
  locking or optimistic concurrency with internal retry; either way the
  engine sees logically atomic, isolated semantics. Cross-employee
  operations carry no ordering requirement.

CHANGE STREAM:
  Watch mirrors the original UI's live subscription: a channel of
  change events scoped to an owning admin. The engine itself never
  consumes it; only the presentation layer does.

IMPLEMENTATIONS:
  - store/memory:   mutex + deep-copy snapshots (tests, dev)
  - store/sqlite:   single-file document table, WAL
  - store/postgres: pgx, row-locked serializable transactions
*/
package ledger

import (
	"context"
	"sync"
)

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

// EmployeeStore is the external record store the engine transacts
// against. All methods return ErrNotFound for a missing employee and
// wrap infrastructure failures in ErrTransientStore.
type EmployeeStore interface {
	// Get returns a snapshot of the employee.
	Get(ctx context.Context, id string) (*Employee, error)

	// Create persists a new employee with its freshly initialized ledger.
	Create(ctx context.Context, emp *Employee) error

	// Delete removes the employee and its ledger.
	Delete(ctx context.Context, id string) error

	// List returns all employees owned by the given admin, name order.
	List(ctx context.Context, adminID string) ([]*Employee, error)

	// RunAtomic executes fn against the employee inside one atomic,
	// isolated transaction. If fn returns an error nothing is written
	// and that error is returned verbatim. On success the committed
	// snapshot is returned.
	RunAtomic(ctx context.Context, id string, fn func(*Employee) error) (*Employee, error)
}

// =============================================================================
// CHANGE STREAM
// =============================================================================

type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// ChangeEvent is one entry on a store's change stream. Employee is a
// snapshot; for deletions only the ID fields are populated.
type ChangeEvent struct {
	Kind     ChangeKind `json:"kind"`
	Employee *Employee  `json:"employee"`
}

// WatchStore is implemented by stores that expose a change stream.
type WatchStore interface {
	EmployeeStore

	// Watch streams change events for employees owned by adminID until
	// ctx is done. The returned channel is closed on cancellation.
	Watch(ctx context.Context, adminID string) <-chan ChangeEvent
}

// =============================================================================
// BROADCASTER - Shared change-stream plumbing for store implementations
// =============================================================================

// Broadcaster fans change events out to subscribed watchers. Store
// implementations embed one and publish after each committed write.
// Slow subscribers drop events rather than block the write path.
type Broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]subscriber
}

type subscriber struct {
	adminID string
	ch      chan ChangeEvent
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]subscriber)}
}

// Subscribe registers a watcher for one admin's employees. The channel
// closes when ctx is done.
func (b *Broadcaster) Subscribe(ctx context.Context, adminID string) <-chan ChangeEvent {
	ch := make(chan ChangeEvent, 16)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = subscriber{adminID: adminID, ch: ch}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		close(ch)
	}()

	return ch
}

// Publish delivers an event to every subscriber watching the owning
// admin. Non-blocking: a full subscriber channel drops the event.
func (b *Broadcaster) Publish(event ChangeEvent) {
	adminID := ""
	if event.Employee != nil {
		adminID = event.Employee.AdminID
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if sub.adminID != adminID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}
