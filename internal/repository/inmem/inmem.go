// Package inmem provides process-local repositories for DB_DRIVER=memory
// and for tests. Records are copied on every read and write so callers
// never share state with the store.
package inmem

import (
	"sort"
	"strings"
	"sync"
	"time"

	"servicehub/internal/domain"
	"servicehub/internal/repository"

	"github.com/google/uuid"
)

// New creates an empty set of in-memory repositories
func New() *repository.Repositories {
	return &repository.Repositories{
		Users:      NewUserRepository(),
		Categories: NewCategoryRepository(),
		Services:   NewServiceRepository(),
		Bookings:   NewBookingRepository(),
		Reviews:    NewReviewRepository(),
		Payments:   NewPaymentRepository(),
	}
}

// table is a mutex-guarded map of records keyed by id
type table[T any] struct {
	mu    sync.RWMutex
	rows  map[string]*T
	clone func(*T) *T
}

func newTable[T any](clone func(*T) *T) *table[T] {
	return &table[T]{rows: make(map[string]*T), clone: clone}
}

func (t *table[T]) get(id string) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	row, ok := t.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t.clone(row), nil
}

func (t *table[T]) filter(match func(*T) bool, created func(*T) time.Time) []*T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*T, 0)
	for _, row := range t.rows {
		if match == nil || match(row) {
			out = append(out, t.clone(row))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return created(out[i]).After(created(out[j]))
	})
	return out
}

func (t *table[T]) find(match func(*T) bool) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, row := range t.rows {
		if match(row) {
			return t.clone(row), nil
		}
	}
	return nil, repository.ErrNotFound
}

// mutate applies fn to the stored row under the write lock
func (t *table[T]) mutate(id string, fn func(*T) error) (*T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	next := t.clone(row)
	if err := fn(next); err != nil {
		return nil, err
	}
	t.rows[id] = next
	return t.clone(next), nil
}

// insert stores row unless conflicts reports a clash with an existing row
func (t *table[T]) insert(id string, row *T, conflicts func(existing *T) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; ok {
		return repository.ErrDuplicate
	}
	if conflicts != nil {
		for _, existing := range t.rows {
			if conflicts(existing) {
				return repository.ErrDuplicate
			}
		}
	}
	t.rows[id] = t.clone(row)
	return nil
}

func (t *table[T]) delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(t.rows, id)
	return nil
}

func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func now() time.Time {
	return time.Now().UTC()
}

func cloneRefs(refs []domain.MediaRef) []domain.MediaRef {
	out := make([]domain.MediaRef, len(refs))
	copy(out, refs)
	return out
}

func cloneRef(ref *domain.MediaRef) *domain.MediaRef {
	if ref == nil {
		return nil
	}
	c := *ref
	return &c
}

func equalFold(a, b string) bool {
	return strings.EqualFold(a, b)
}
