package sale

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Store keeps sales in memory. Identity assignment and durability belong to a
// persistence layer; this store only guarantees lookup by id and reference.
type Store struct {
	mu    sync.RWMutex
	sales map[uuid.UUID]*Sale
	byRef map[string]uuid.UUID
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		sales: make(map[uuid.UUID]*Sale),
		byRef: make(map[string]uuid.UUID),
	}
}

// Put registers a sale.
func (st *Store) Put(s *Sale) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sales[s.ID()] = s
	st.byRef[s.Reference()] = s.ID()
}

// Get returns the sale by id.
func (st *Store) Get(id uuid.UUID) (*Sale, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sales[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSale, id)
	}
	return s, nil
}

// GetByReference returns the sale by its reference number.
func (st *Store) GetByReference(ref string) (*Sale, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	id, ok := st.byRef[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSale, ref)
	}
	return st.sales[id], nil
}

// List returns all sales ordered by creation time, oldest first.
func (st *Store) List() []*Sale {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*Sale, 0, len(st.sales))
	for _, s := range st.sales {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].Reference() < out[j].Reference()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out
}

// Len returns the number of stored sales.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sales)
}
