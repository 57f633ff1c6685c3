package sale

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-apotek/internal/money"
)

var (
	// ErrNotModifiable is returned when mutating line items or discounts on a
	// sale that already left the Pending state.
	ErrNotModifiable = errors.New("sale: not modifiable")
	// ErrInvalidQuantity is returned for a non-positive line item quantity.
	ErrInvalidQuantity = errors.New("sale: invalid quantity")
	// ErrInvalidDiscount is returned for a discount exceeding the subtotal or
	// a percentage outside [0,100].
	ErrInvalidDiscount = errors.New("sale: invalid discount")
	// ErrEmptySale is returned when completing a sale with no line items.
	ErrEmptySale = errors.New("sale: no line items")
	// ErrInvalidStateTransition is returned for a lifecycle transition the
	// state machine does not allow.
	ErrInvalidStateTransition = errors.New("sale: invalid state transition")
	// ErrInvalidRefund is returned when a partial refund would exceed the
	// sale total.
	ErrInvalidRefund = errors.New("sale: invalid refund")
	// ErrInvalidTaxRate is returned when constructing a sale with a tax rate
	// outside [0,1).
	ErrInvalidTaxRate = errors.New("sale: invalid tax rate")
	// ErrUnknownSale is returned when a store lookup misses.
	ErrUnknownSale = errors.New("sale: unknown sale")
)

// Status is the lifecycle state of a sale.
type Status string

const (
	StatusPending           Status = "PENDING"
	StatusCompleted         Status = "COMPLETED"
	StatusRefunded          Status = "REFUNDED"
	StatusPartiallyRefunded Status = "PARTIALLY_REFUNDED"
	StatusCancelled         Status = "CANCELLED"
)

// LineItem is one (item, quantity, unit price) tuple within a sale.
type LineItem struct {
	ItemID    uuid.UUID   `json:"itemId"`
	Quantity  int         `json:"quantity"`
	UnitPrice money.Money `json:"unitPrice"`
	LineTotal money.Money `json:"lineTotal"`
}

// Config configures a new Sale.
type Config struct {
	Currency  string
	TaxRate   decimal.Decimal
	RefPrefix string
	Now       func() time.Time
}

// Sale accumulates line items and derives subtotal, discount, tax, and total.
// Totals are recomputed on every mutation; callers read them through the
// accessors and never re-derive them. Tax is charged on the post-discount
// amount, never on the pre-discount subtotal.
//
// A Sale is safe for concurrent use: mutations take the write lock, accessors
// the read lock. Snapshot returns a consistent copy for multi-field reads.
type Sale struct {
	mu             sync.RWMutex
	id             uuid.UUID
	reference      string
	currency       string
	taxRate        decimal.Decimal
	now            func() time.Time
	status         Status
	items          []LineItem
	discount       money.Money
	discountReason string
	subtotal       money.Money
	taxAmount      money.Money
	total          money.Money
	refunded       money.Money
	cancelReason   string
	createdAt      time.Time
	updatedAt      time.Time
}

// New constructs a Pending sale with zero totals.
func New(cfg Config) (*Sale, error) {
	if cfg.TaxRate.IsNegative() || cfg.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTaxRate, cfg.TaxRate.String())
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	prefix := strings.TrimSpace(cfg.RefPrefix)
	if prefix == "" {
		prefix = "SALE"
	}
	currency := cfg.Currency
	if strings.TrimSpace(currency) == "" {
		currency = money.DefaultCurrency
	}
	createdAt := now()
	zero := money.Zero(currency)
	return &Sale{
		id:        uuid.New(),
		reference: newReference(prefix, createdAt),
		currency:  zero.Currency(),
		taxRate:   cfg.TaxRate,
		now:       now,
		status:    StatusPending,
		discount:  zero,
		subtotal:  zero,
		taxAmount: zero,
		total:     zero,
		refunded:  zero,
		createdAt: createdAt,
		updatedAt: createdAt,
	}, nil
}

// newReference builds a cosmetic reference such as SALE-20260831-9F2A1B.
func newReference(prefix string, now time.Time) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), strings.ToUpper(raw[:6]))
}

// AddLineItem appends a line item and recomputes totals. Only Pending sales
// may be mutated.
func (s *Sale) AddLineItem(itemID uuid.UUID, quantity int, unitPrice money.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusPending {
		return fmt.Errorf("%w: status %s", ErrNotModifiable, s.status)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	if unitPrice.Currency() != s.currency {
		return fmt.Errorf("%w: %s vs %s", money.ErrCurrencyMismatch, unitPrice.Currency(), s.currency)
	}
	lineTotal, err := unitPrice.MulInt(int64(quantity))
	if err != nil {
		return err
	}
	s.items = append(s.items, LineItem{
		ItemID:    itemID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		LineTotal: lineTotal,
	})
	s.recompute()
	s.touch()
	return nil
}

// RemoveLineItem removes the first line item for the given item id and
// reports whether one was found.
func (s *Sale) RemoveLineItem(itemID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusPending {
		return false, fmt.Errorf("%w: status %s", ErrNotModifiable, s.status)
	}
	for i, it := range s.items {
		if it.ItemID == itemID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.recompute()
			s.touch()
			return true, nil
		}
	}
	return false, nil
}

// ApplyDiscount sets a fixed discount amount with an optional free-text
// reason. The discount may not exceed the current subtotal.
func (s *Sale) ApplyDiscount(amount money.Money, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyDiscount(amount, reason)
}

// ApplyDiscountPercent converts a percentage in [0,100] into an equivalent
// fixed discount over the current subtotal. Pure sugar over ApplyDiscount.
func (s *Sale) ApplyDiscountPercent(percent decimal.Decimal, reason string) error {
	if percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: percentage %s", ErrInvalidDiscount, percent.String())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	amount, err := s.subtotal.Mul(percent.Div(decimal.NewFromInt(100)))
	if err != nil {
		return err
	}
	return s.applyDiscount(amount, reason)
}

func (s *Sale) applyDiscount(amount money.Money, reason string) error {
	if s.status != StatusPending {
		return fmt.Errorf("%w: status %s", ErrNotModifiable, s.status)
	}
	gt, err := amount.GreaterThan(s.subtotal)
	if err != nil {
		return err
	}
	if gt {
		return fmt.Errorf("%w: discount %s exceeds subtotal %s", ErrInvalidDiscount, amount, s.subtotal)
	}
	s.discount = amount
	s.discountReason = strings.TrimSpace(reason)
	s.recompute()
	s.touch()
	return nil
}

// Complete transitions Pending -> Completed. A sale needs at least one line item.
func (s *Sale) Complete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, s.status, StatusCompleted)
	}
	if len(s.items) == 0 {
		return ErrEmptySale
	}
	s.status = StatusCompleted
	s.touch()
	return nil
}

// Refund transitions Completed -> Refunded and marks the full total refunded.
func (s *Sale) Refund() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusCompleted {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, s.status, StatusRefunded)
	}
	s.status = StatusRefunded
	s.refunded = s.total
	s.touch()
	return nil
}

// PartialRefund refunds a portion of the total. Allowed from Completed or
// PartiallyRefunded; the cumulative refunded amount may never exceed the total.
func (s *Sale) PartialRefund(amount money.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusCompleted && s.status != StatusPartiallyRefunded {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, s.status, StatusPartiallyRefunded)
	}
	if amount.IsZero() {
		return fmt.Errorf("%w: zero amount", ErrInvalidRefund)
	}
	cumulative, err := s.refunded.Add(amount)
	if err != nil {
		return err
	}
	exceeds, err := cumulative.GreaterThan(s.total)
	if err != nil {
		return err
	}
	if exceeds {
		return fmt.Errorf("%w: refunded %s would exceed total %s", ErrInvalidRefund, cumulative, s.total)
	}
	s.refunded = cumulative
	s.status = StatusPartiallyRefunded
	s.touch()
	return nil
}

// Cancel transitions Pending -> Cancelled and records the reason. Completed
// sales must be refunded instead.
func (s *Sale) Cancel(reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, s.status, StatusCancelled)
	}
	s.status = StatusCancelled
	s.cancelReason = strings.TrimSpace(reason)
	s.touch()
	return nil
}

// recompute derives subtotal, tax, and total from the current line items and
// discount. With no line items everything resets to zero. The effective
// discount is capped at the subtotal so removing line items after a discount
// cannot push the taxable amount negative.
func (s *Sale) recompute() {
	zero := money.Zero(s.currency)
	if len(s.items) == 0 {
		s.subtotal = zero
		s.taxAmount = zero
		s.total = zero
		return
	}
	subtotal := zero
	for _, it := range s.items {
		// same currency as the sale, enforced in AddLineItem
		subtotal, _ = subtotal.Add(it.LineTotal)
	}
	effective := s.discount
	if gt, _ := effective.GreaterThan(subtotal); gt {
		effective = subtotal
	}
	taxable, _ := subtotal.Sub(effective)
	tax, _ := taxable.Mul(s.taxRate)
	total, _ := taxable.Add(tax)
	s.subtotal = subtotal
	s.taxAmount = tax
	s.total = total
}

func (s *Sale) touch() {
	s.updatedAt = s.now()
}

// ID returns the sale identifier.
func (s *Sale) ID() uuid.UUID { return s.id }

// Reference returns the human-facing reference number.
func (s *Sale) Reference() string { return s.reference }

// Currency returns the sale currency code.
func (s *Sale) Currency() string { return s.currency }

// TaxRate returns the configured tax fraction.
func (s *Sale) TaxRate() decimal.Decimal { return s.taxRate }

// Status returns the lifecycle state.
func (s *Sale) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Items returns a copy of the line items in insertion order.
func (s *Sale) Items() []LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Subtotal returns the sum of line totals before discount and tax.
func (s *Sale) Subtotal() money.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subtotal
}

// Discount returns the applied discount amount.
func (s *Sale) Discount() money.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.discount
}

// DiscountReason returns the free-text note recorded with the discount.
func (s *Sale) DiscountReason() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.discountReason
}

// TaxAmount returns the tax charged on the post-discount amount.
func (s *Sale) TaxAmount() money.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.taxAmount
}

// Total returns subtotal - discount + tax.
func (s *Sale) Total() money.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// RefundedToDate returns the cumulative refunded amount.
func (s *Sale) RefundedToDate() money.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refunded
}

// CancelReason returns the reason recorded on cancellation.
func (s *Sale) CancelReason() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cancelReason
}

// CreatedAt returns the creation timestamp.
func (s *Sale) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the last mutation timestamp.
func (s *Sale) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Snapshot is a consistent point-in-time copy of a sale's state.
type Snapshot struct {
	ID             uuid.UUID
	Reference      string
	Status         Status
	Currency       string
	Items          []LineItem
	Discount       money.Money
	DiscountReason string
	Subtotal       money.Money
	TaxAmount      money.Money
	Total          money.Money
	RefundedToDate money.Money
	CancelReason   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Snapshot copies the full sale state under a single read lock. Callers that
// need several fields from the same moment use this instead of stitching
// individual accessor results together.
func (s *Sale) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]LineItem, len(s.items))
	copy(items, s.items)
	return Snapshot{
		ID:             s.id,
		Reference:      s.reference,
		Status:         s.status,
		Currency:       s.currency,
		Items:          items,
		Discount:       s.discount,
		DiscountReason: s.discountReason,
		Subtotal:       s.subtotal,
		TaxAmount:      s.taxAmount,
		Total:          s.total,
		RefundedToDate: s.refunded,
		CancelReason:   s.cancelReason,
		CreatedAt:      s.createdAt,
		UpdatedAt:      s.updatedAt,
	}
}
