package sale

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-apotek/internal/events"
	"github.com/noah-isme/backend-apotek/internal/money"
	"github.com/noah-isme/backend-apotek/internal/obs"
)

// PriceLookup resolves the unit price for an item. Implemented by the catalog.
type PriceLookup interface {
	UnitPrice(ctx context.Context, itemID uuid.UUID) (money.Money, error)
}

// Service drives the sale lifecycle on top of the in-memory store. Each sale
// is mutated under its own lock, never a global one.
type Service struct {
	Store     *Store
	Prices    PriceLookup
	Bus       *events.Bus
	Logger    zerolog.Logger
	Currency  string
	TaxRate   decimal.Decimal
	RefPrefix string
	Now       func() time.Time

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// Create starts a new Pending sale and registers it with the store.
func (s *Service) Create(_ context.Context) (*Sale, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("sale: service not configured")
	}
	created, err := New(Config{
		Currency:  s.Currency,
		TaxRate:   s.TaxRate,
		RefPrefix: s.RefPrefix,
		Now:       s.Now,
	})
	if err != nil {
		return nil, err
	}
	s.Store.Put(created)
	s.Logger.Info().
		Str("sale_id", created.ID().String()).
		Str("reference", created.Reference()).
		Msg("sale created")
	return created, nil
}

// Get returns the sale by id.
func (s *Service) Get(_ context.Context, id uuid.UUID) (*Sale, error) {
	return s.Store.Get(id)
}

// GetByReference returns the sale by its reference number.
func (s *Service) GetByReference(_ context.Context, ref string) (*Sale, error) {
	return s.Store.GetByReference(ref)
}

// List returns all sales, oldest first.
func (s *Service) List(_ context.Context) []*Sale {
	return s.Store.List()
}

// AddItem resolves the unit price through the catalog and appends a line item.
func (s *Service) AddItem(ctx context.Context, saleID, itemID uuid.UUID, quantity int) (*Sale, error) {
	if s.Prices == nil {
		return nil, errors.New("sale: price lookup not configured")
	}
	unitPrice, err := s.Prices.UnitPrice(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return s.withSale(saleID, func(target *Sale) error {
		return target.AddLineItem(itemID, quantity, unitPrice)
	})
}

// RemoveItem removes the line item for the given item id.
func (s *Service) RemoveItem(_ context.Context, saleID, itemID uuid.UUID) (removed bool, err error) {
	_, err = s.withSale(saleID, func(target *Sale) error {
		var innerErr error
		removed, innerErr = target.RemoveLineItem(itemID)
		return innerErr
	})
	return removed, err
}

// ApplyDiscountAmount applies a fixed discount with an optional reason.
func (s *Service) ApplyDiscountAmount(_ context.Context, saleID uuid.UUID, amount money.Money, reason string) (*Sale, error) {
	return s.withSale(saleID, func(target *Sale) error {
		return target.ApplyDiscount(amount, reason)
	})
}

// ApplyDiscountPercent applies a percentage discount with an optional reason.
func (s *Service) ApplyDiscountPercent(_ context.Context, saleID uuid.UUID, percent decimal.Decimal, reason string) (*Sale, error) {
	return s.withSale(saleID, func(target *Sale) error {
		return target.ApplyDiscountPercent(percent, reason)
	})
}

// Complete finalises the sale, emits sale.completed, and records the total.
func (s *Service) Complete(ctx context.Context, saleID uuid.UUID) (*Sale, error) {
	completed, err := s.withSale(saleID, func(target *Sale) error {
		return target.Complete()
	})
	if err != nil {
		return nil, err
	}
	snap := completed.Snapshot()
	s.emit(ctx, events.TopicSaleCompleted, snap)
	if obs.SaleCompletedValue != nil {
		value, _ := snap.Total.Amount().Float64()
		obs.SaleCompletedValue.Observe(value)
	}
	s.Logger.Info().
		Str("sale_id", snap.ID.String()).
		Str("reference", snap.Reference).
		Str("total", snap.Total.String()).
		Msg("sale completed")
	return completed, nil
}

// Refund fully refunds a completed sale.
func (s *Service) Refund(ctx context.Context, saleID uuid.UUID) (*Sale, error) {
	refunded, err := s.withSale(saleID, func(target *Sale) error {
		return target.Refund()
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.TopicSaleRefunded, refunded.Snapshot())
	return refunded, nil
}

// PartialRefund refunds part of a completed sale.
func (s *Service) PartialRefund(ctx context.Context, saleID uuid.UUID, amount money.Money) (*Sale, error) {
	refunded, err := s.withSale(saleID, func(target *Sale) error {
		return target.PartialRefund(amount)
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.TopicSalePartiallyRefunded, refunded.Snapshot())
	return refunded, nil
}

// Cancel cancels a pending sale with a reason.
func (s *Service) Cancel(ctx context.Context, saleID uuid.UUID, reason string) (*Sale, error) {
	cancelled, err := s.withSale(saleID, func(target *Sale) error {
		return target.Cancel(reason)
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.TopicSaleCancelled, cancelled.Snapshot())
	return cancelled, nil
}

func (s *Service) withSale(saleID uuid.UUID, fn func(*Sale) error) (*Sale, error) {
	target, err := s.Store.Get(saleID)
	if err != nil {
		return nil, err
	}
	lock := s.lockFor(saleID)
	lock.Lock()
	defer lock.Unlock()
	if err := fn(target); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *Service) lockFor(saleID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks == nil {
		s.locks = make(map[uuid.UUID]*sync.Mutex)
	}
	lock, ok := s.locks[saleID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[saleID] = lock
	}
	return lock
}

func (s *Service) emit(ctx context.Context, topic string, snap Snapshot) {
	if s.Bus == nil {
		return
	}
	_, err := s.Bus.Emit(ctx, topic, snap.ID, map[string]any{
		"reference": snap.Reference,
		"status":    string(snap.Status),
		"total":     snap.Total,
		"refunded":  snap.RefundedToDate,
	})
	if err != nil {
		s.Logger.Error().Err(err).Str("topic", topic).Msg("emit domain event")
	}
}
