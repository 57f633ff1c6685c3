package stock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-apotek/internal/events"
)

var (
	// ErrInvalidQuantity is returned for negative or non-positive quantities
	// depending on the operation.
	ErrInvalidQuantity = errors.New("stock: invalid quantity")
	// ErrInvalidThreshold is returned for a negative reorder level or a
	// non-positive reorder quantity.
	ErrInvalidThreshold = errors.New("stock: invalid reorder threshold")
	// ErrInsufficientStock is returned when a removal would drive the
	// quantity negative. The entry is left untouched.
	ErrInsufficientStock = errors.New("stock: insufficient stock")
	// ErrUnknownItem is returned when the ledger does not track the item.
	ErrUnknownItem = errors.New("stock: unknown item")
	// ErrAlreadyTracked is returned when tracking an item twice.
	ErrAlreadyTracked = errors.New("stock: item already tracked")
)

// Default reorder thresholds applied when callers omit overrides.
const (
	DefaultReorderLevel    = 50
	DefaultReorderQuantity = 100
)

// Level classifies an entry's stock position.
type Level string

const (
	LevelOutOfStock   Level = "OUT_OF_STOCK"
	LevelNeedsReorder Level = "NEEDS_REORDER"
	LevelLowStock     Level = "LOW_STOCK"
	LevelAdequate     Level = "ADEQUATE"
)

// Entry tracks the quantity of a single inventory item.
type Entry struct {
	ItemID          uuid.UUID  `json:"itemId"`
	CurrentQuantity int        `json:"currentQuantity"`
	ReorderLevel    int        `json:"reorderLevel"`
	ReorderQuantity int        `json:"reorderQuantity"`
	Location        string     `json:"location,omitempty"`
	SupplierID      string     `json:"supplierId,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	LastRestockAt   *time.Time `json:"lastRestockAt,omitempty"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Options carries optional attributes when an item enters the ledger.
// Nil threshold overrides fall back to DefaultReorderLevel and
// DefaultReorderQuantity.
type Options struct {
	ReorderLevel    *int
	ReorderQuantity *int
	Location        string
	SupplierID      string
	Notes           string
}

// Classify derives the stock level for an entry. OutOfStock takes precedence,
// then NeedsReorder (strictly below the reorder level), then LowStock (exactly
// at the reorder level). NeedsReorder always implies the entry is also low.
func Classify(e Entry) Level {
	switch {
	case e.CurrentQuantity == 0:
		return LevelOutOfStock
	case e.CurrentQuantity < e.ReorderLevel:
		return LevelNeedsReorder
	case e.CurrentQuantity == e.ReorderLevel:
		return LevelLowStock
	default:
		return LevelAdequate
	}
}

// NeedsReorder reports whether the entry sits below its reorder level.
func (e Entry) NeedsReorder() bool {
	return e.CurrentQuantity < e.ReorderLevel
}

// IsLowStock reports whether the entry sits at or below its reorder level.
func (e Entry) IsLowStock() bool {
	return e.CurrentQuantity <= e.ReorderLevel
}

// Ledger tracks per-item stock entries in memory. A removal that would drive a
// quantity negative is rejected, never clamped; every successful mutation
// stamps the entry's UpdatedAt from the injected clock.
type Ledger struct {
	mu              sync.RWMutex
	now             func() time.Time
	bus             *events.Bus
	reorderLevel    int
	reorderQuantity int
	entries         map[uuid.UUID]*Entry
}

// LedgerConfig configures a Ledger. Now defaults to time.Now, Bus may be nil
// when no event fan-out is wanted, and the reorder defaults fall back to the
// package constants when zero.
type LedgerConfig struct {
	Now             func() time.Time
	Bus             *events.Bus
	ReorderLevel    int
	ReorderQuantity int
}

// NewLedger constructs an empty ledger.
func NewLedger(cfg LedgerConfig) *Ledger {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	level := cfg.ReorderLevel
	if level <= 0 {
		level = DefaultReorderLevel
	}
	reorderQty := cfg.ReorderQuantity
	if reorderQty <= 0 {
		reorderQty = DefaultReorderQuantity
	}
	return &Ledger{
		now:             now,
		bus:             cfg.Bus,
		reorderLevel:    level,
		reorderQuantity: reorderQty,
		entries:         make(map[uuid.UUID]*Entry),
	}
}

// Track registers an item with its initial quantity.
func (l *Ledger) Track(ctx context.Context, itemID uuid.UUID, quantity int, opts Options) (Entry, error) {
	if itemID == uuid.Nil {
		return Entry{}, fmt.Errorf("%w: nil item id", ErrUnknownItem)
	}
	if quantity < 0 {
		return Entry{}, fmt.Errorf("%w: initial quantity %d", ErrInvalidQuantity, quantity)
	}
	level := l.reorderLevel
	if opts.ReorderLevel != nil {
		level = *opts.ReorderLevel
	}
	reorderQty := l.reorderQuantity
	if opts.ReorderQuantity != nil {
		reorderQty = *opts.ReorderQuantity
	}
	if err := validateThresholds(level, reorderQty); err != nil {
		return Entry{}, err
	}

	l.mu.Lock()
	if _, exists := l.entries[itemID]; exists {
		l.mu.Unlock()
		return Entry{}, fmt.Errorf("%w: %s", ErrAlreadyTracked, itemID)
	}
	entry := &Entry{
		ItemID:          itemID,
		CurrentQuantity: quantity,
		ReorderLevel:    level,
		ReorderQuantity: reorderQty,
		Location:        opts.Location,
		SupplierID:      opts.SupplierID,
		Notes:           opts.Notes,
		UpdatedAt:       l.now(),
	}
	l.entries[itemID] = entry
	snapshot := *entry
	l.mu.Unlock()

	l.notifyLevel(ctx, Entry{}, snapshot)
	return snapshot, nil
}

// Get returns a copy of the tracked entry.
func (l *Ledger) Get(itemID uuid.UUID) (Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.entries[itemID]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	return *entry, nil
}

// AddStock increments the quantity and stamps the restock timestamp.
func (l *Ledger) AddStock(ctx context.Context, itemID uuid.UUID, quantity int) (Entry, error) {
	if quantity <= 0 {
		return Entry{}, fmt.Errorf("%w: add %d", ErrInvalidQuantity, quantity)
	}
	before, after, err := l.mutate(itemID, func(e *Entry) error {
		e.CurrentQuantity += quantity
		restockedAt := l.now()
		e.LastRestockAt = &restockedAt
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	l.emit(ctx, events.TopicStockRestocked, after, map[string]any{
		"added":    quantity,
		"quantity": after.CurrentQuantity,
	})
	l.notifyLevel(ctx, before, after)
	return after, nil
}

// RemoveStock decrements the quantity. A removal exceeding the current
// quantity fails with ErrInsufficientStock and leaves the entry unchanged.
func (l *Ledger) RemoveStock(ctx context.Context, itemID uuid.UUID, quantity int) (Entry, error) {
	if quantity <= 0 {
		return Entry{}, fmt.Errorf("%w: remove %d", ErrInvalidQuantity, quantity)
	}
	before, after, err := l.mutate(itemID, func(e *Entry) error {
		if quantity > e.CurrentQuantity {
			return fmt.Errorf("%w: requested %d, available %d", ErrInsufficientStock, quantity, e.CurrentQuantity)
		}
		e.CurrentQuantity -= quantity
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	l.notifyLevel(ctx, before, after)
	return after, nil
}

// SetQuantity overrides the current quantity directly.
func (l *Ledger) SetQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (Entry, error) {
	if quantity < 0 {
		return Entry{}, fmt.Errorf("%w: set %d", ErrInvalidQuantity, quantity)
	}
	before, after, err := l.mutate(itemID, func(e *Entry) error {
		e.CurrentQuantity = quantity
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	l.notifyLevel(ctx, before, after)
	return after, nil
}

// UpdateReorderSettings replaces the reorder level and quantity.
func (l *Ledger) UpdateReorderSettings(_ context.Context, itemID uuid.UUID, reorderLevel, reorderQuantity int) (Entry, error) {
	if err := validateThresholds(reorderLevel, reorderQuantity); err != nil {
		return Entry{}, err
	}
	_, after, err := l.mutate(itemID, func(e *Entry) error {
		e.ReorderLevel = reorderLevel
		e.ReorderQuantity = reorderQuantity
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return after, nil
}

// List returns copies of all entries ordered by item id.
func (l *Ledger) List() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ItemID.String() < out[j].ItemID.String()
	})
	return out
}

// LowStock returns all entries at or below their reorder level.
func (l *Ledger) LowStock() []Entry {
	all := l.List()
	out := all[:0]
	for _, e := range all {
		if e.IsLowStock() {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of tracked entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// mutate applies fn to the entry under the lock. fn must either fully apply
// its change or return an error without touching the entry.
func (l *Ledger) mutate(itemID uuid.UUID, fn func(*Entry) error) (before, after Entry, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[itemID]
	if !ok {
		return Entry{}, Entry{}, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	before = *entry
	if err := fn(entry); err != nil {
		return Entry{}, Entry{}, err
	}
	entry.UpdatedAt = l.now()
	return before, *entry, nil
}

func (l *Ledger) emit(ctx context.Context, topic string, entry Entry, payload map[string]any) {
	if l.bus == nil {
		return
	}
	_, _ = l.bus.Emit(ctx, topic, entry.ItemID, payload)
}

// notifyLevel emits stock.low / stock.out when a mutation crosses into a
// worse level than before.
func (l *Ledger) notifyLevel(ctx context.Context, before, after Entry) {
	if l.bus == nil {
		return
	}
	afterLevel := Classify(after)
	if before.ItemID != uuid.Nil && Classify(before) == afterLevel {
		return
	}
	switch afterLevel {
	case LevelOutOfStock:
		l.emit(ctx, events.TopicStockOut, after, map[string]any{"quantity": after.CurrentQuantity})
	case LevelNeedsReorder, LevelLowStock:
		l.emit(ctx, events.TopicStockLow, after, map[string]any{
			"quantity":        after.CurrentQuantity,
			"reorderLevel":    after.ReorderLevel,
			"reorderQuantity": after.ReorderQuantity,
		})
	}
}

func validateThresholds(reorderLevel, reorderQuantity int) error {
	if reorderLevel < 0 {
		return fmt.Errorf("%w: reorder level %d", ErrInvalidThreshold, reorderLevel)
	}
	if reorderQuantity <= 0 {
		return fmt.Errorf("%w: reorder quantity %d", ErrInvalidThreshold, reorderQuantity)
	}
	return nil
}
