package store

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"leadbook/internal/buyer/filter"
	"leadbook/internal/buyer/models"
	"leadbook/pkg/platform/sentinel"
)

// InMemory keeps buyers and their history in process memory.
// RunInTx serializes writers and restores the previous state when fn fails.
type InMemory struct {
	txMu    sync.Mutex
	mu      sync.RWMutex
	buyers  map[string]*models.Buyer
	history map[string][]*models.HistoryEntry
}

type inTxKey struct{}

func NewInMemory() *InMemory {
	return &InMemory{
		buyers:  make(map[string]*models.Buyer),
		history: make(map[string][]*models.HistoryEntry),
	}
}

func (s *InMemory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inTxKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	buyers, history := s.snapshot()
	if err := fn(context.WithValue(ctx, inTxKey{}, true)); err != nil {
		s.mu.Lock()
		s.buyers, s.history = buyers, history
		s.mu.Unlock()
		return err
	}
	return nil
}

// writeLock serializes a standalone write against running transactions.
// Writes issued from inside RunInTx already hold the lock.
func (s *InMemory) writeLock(ctx context.Context) func() {
	if ctx.Value(inTxKey{}) != nil {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

func (s *InMemory) snapshot() (map[string]*models.Buyer, map[string][]*models.HistoryEntry) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.buyers), cloneHistory(s.history)
}

func (s *InMemory) Create(ctx context.Context, b *models.Buyer) error {
	defer s.writeLock(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buyers[b.ID]; ok {
		return fmt.Errorf("buyer %s: %w", b.ID, sentinel.ErrAlreadyUsed)
	}
	s.buyers[b.ID] = b.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.Buyer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.buyers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return b.Clone(), nil
}

// Update replaces the stored buyer if its updatedAt still equals expected.
func (s *InMemory) Update(ctx context.Context, b *models.Buyer, expected time.Time) error {
	defer s.writeLock(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.buyers[b.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !current.UpdatedAt.Equal(expected) {
		return sentinel.ErrConflict
	}
	next := b.Clone()
	next.OwnerID = current.OwnerID
	next.CreatedAt = current.CreatedAt
	s.buyers[b.ID] = next
	return nil
}

func (s *InMemory) Delete(ctx context.Context, id string) error {
	defer s.writeLock(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buyers[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.buyers, id)
	return nil
}

func (s *InMemory) List(_ context.Context, q filter.Query) ([]*models.Buyer, error) {
	matched := s.match(q)
	slices.SortStableFunc(matched, func(a, b *models.Buyer) int {
		c := a.UpdatedAt.Compare(b.UpdatedAt)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if q.Order == filter.OrderDesc {
			return -c
		}
		return c
	})
	if q.Paged() {
		if q.Offset >= len(matched) {
			return []*models.Buyer{}, nil
		}
		matched = matched[q.Offset:min(q.Offset+q.Limit, len(matched))]
	}
	out := make([]*models.Buyer, len(matched))
	for i, b := range matched {
		out[i] = b.Clone()
	}
	return out, nil
}

func (s *InMemory) Count(_ context.Context, q filter.Query) (int, error) {
	return len(s.match(q)), nil
}

func (s *InMemory) match(q filter.Query) []*models.Buyer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Buyer
	for _, b := range s.buyers {
		if q.Matches(b) {
			out = append(out, b)
		}
	}
	return out
}

func (s *InMemory) Append(ctx context.Context, e *models.HistoryEntry) error {
	defer s.writeLock(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := *e
	entry.Changes = maps.Clone(e.Changes)
	s.history[e.BuyerID] = append(s.history[e.BuyerID], &entry)
	return nil
}

// ListByBuyer returns up to limit entries, newest first. limit <= 0 returns all.
func (s *InMemory) ListByBuyer(_ context.Context, buyerID string, limit int) ([]*models.HistoryEntry, error) {
	s.mu.RLock()
	entries := slices.Clone(s.history[buyerID])
	s.mu.RUnlock()

	slices.SortStableFunc(entries, func(a, b *models.HistoryEntry) int {
		return b.ChangedAt.Compare(a.ChangedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]*models.HistoryEntry, len(entries))
	for i, e := range entries {
		c := *e
		out[i] = &c
	}
	return out, nil
}

func (s *InMemory) DeleteByBuyer(ctx context.Context, buyerID string) error {
	defer s.writeLock(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, buyerID)
	return nil
}

func cloneHistory(h map[string][]*models.HistoryEntry) map[string][]*models.HistoryEntry {
	out := make(map[string][]*models.HistoryEntry, len(h))
	for k, v := range h {
		out[k] = slices.Clone(v)
	}
	return out
}
