package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-apotek/internal/money"
)

var (
	// ErrNotFound is returned when a medication lookup misses.
	ErrNotFound = errors.New("catalog: medication not found")
	// ErrInvalidMedication is returned for a medication missing required fields.
	ErrInvalidMedication = errors.New("catalog: invalid medication")
)

// Medication is a plain catalog record. The core treats it as an attribute
// bag; only the unit price participates in pricing.
type Medication struct {
	ID                   uuid.UUID   `json:"id"`
	Name                 string      `json:"name"`
	Manufacturer         string      `json:"manufacturer,omitempty"`
	Description          string      `json:"description,omitempty"`
	RequiresPrescription bool        `json:"requiresPrescription"`
	UnitPrice            money.Money `json:"unitPrice"`
	CreatedAt            time.Time   `json:"createdAt"`
}

// Store is an in-memory medication lookup table.
type Store struct {
	mu   sync.RWMutex
	now  func() time.Time
	meds map[uuid.UUID]Medication
}

// NewStore constructs an empty store. now defaults to time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{now: now, meds: make(map[uuid.UUID]Medication)}
}

// Add registers a medication, assigning an id when missing.
func (s *Store) Add(m Medication) (Medication, error) {
	if strings.TrimSpace(m.Name) == "" {
		return Medication{}, fmt.Errorf("%w: name is required", ErrInvalidMedication)
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meds[m.ID] = m
	return m, nil
}

// Get returns the medication by id.
func (s *Store) Get(id uuid.UUID) (Medication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meds[id]
	if !ok {
		return Medication{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return m, nil
}

// List returns all medications sorted by name.
func (s *Store) List() []Medication {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Medication, 0, len(s.meds))
	for _, m := range s.meds {
		out = append(out, m)
	}
	sortMedications(out)
	return out
}

// Search returns medications whose name or manufacturer contains the query,
// case-insensitively. An empty query returns everything.
func (s *Store) Search(query string) []Medication {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return s.List()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Medication, 0)
	for _, m := range s.meds {
		if strings.Contains(strings.ToLower(m.Name), query) ||
			strings.Contains(strings.ToLower(m.Manufacturer), query) {
			out = append(out, m)
		}
	}
	sortMedications(out)
	return out
}

// UnitPrice implements the sale service's price lookup.
func (s *Store) UnitPrice(_ context.Context, itemID uuid.UUID) (money.Money, error) {
	m, err := s.Get(itemID)
	if err != nil {
		return money.Money{}, err
	}
	return m.UnitPrice, nil
}

// Len returns the number of stored medications.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meds)
}

func sortMedications(meds []Medication) {
	sort.Slice(meds, func(i, j int) bool {
		if meds[i].Name == meds[j].Name {
			return meds[i].ID.String() < meds[j].ID.String()
		}
		return meds[i].Name < meds[j].Name
	})
}
