package sale_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-apotek/internal/catalog"
	"github.com/noah-isme/backend-apotek/internal/events"
	"github.com/noah-isme/backend-apotek/internal/money"
	"github.com/noah-isme/backend-apotek/internal/sale"
)

func newTestService(t *testing.T) (*sale.Service, *catalog.Store, *events.Bus) {
	t.Helper()
	meds := catalog.NewStore(testClock)
	bus := &events.Bus{Now: testClock}
	svc := &sale.Service{
		Store:    sale.NewStore(),
		Prices:   meds,
		Bus:      bus,
		Logger:   zerolog.Nop(),
		Currency: "USD",
		TaxRate:  decimal.RequireFromString("0.15"),
		Now:      testClock,
	}
	return svc, meds, bus
}

func seedMedication(t *testing.T, meds *catalog.Store, name, price string) catalog.Medication {
	t.Helper()
	unit, err := money.NewFromString(price, "USD")
	require.NoError(t, err)
	med, err := meds.Add(catalog.Medication{Name: name, UnitPrice: unit})
	require.NoError(t, err)
	return med
}

func TestServiceResolvesPricesFromCatalog(t *testing.T) {
	svc, meds, _ := newTestService(t)
	med := seedMedication(t, meds, "Paracetamol 500mg", "10.00")

	created, err := svc.Create(context.Background())
	require.NoError(t, err)

	updated, err := svc.AddItem(context.Background(), created.ID(), med.ID, 3)
	require.NoError(t, err)
	require.Equal(t, "$30.00", updated.Subtotal().String())
	require.Equal(t, "$34.50", updated.Total().String())
}

func TestServiceAddItemUnknownMedication(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.Create(context.Background())
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), created.ID(), uuid.New(), 1)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestServiceUnknownSale(t *testing.T) {
	svc, meds, _ := newTestService(t)
	med := seedMedication(t, meds, "Cetirizine 10mg", "4.00")

	_, err := svc.AddItem(context.Background(), uuid.New(), med.ID, 1)
	require.ErrorIs(t, err, sale.ErrUnknownSale)
	_, err = svc.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, sale.ErrUnknownSale)
}

func TestServiceLifecycleEmitsEvents(t *testing.T) {
	svc, meds, bus := newTestService(t)
	med := seedMedication(t, meds, "Amoxicillin 250mg", "7.25")

	created, err := svc.Create(context.Background())
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), created.ID(), med.ID, 2)
	require.NoError(t, err)

	completed, err := svc.Complete(context.Background(), created.ID())
	require.NoError(t, err)
	require.Equal(t, sale.StatusCompleted, completed.Status())

	refundAmount, err := money.NewFromString("5.00", "USD")
	require.NoError(t, err)
	_, err = svc.PartialRefund(context.Background(), created.ID(), refundAmount)
	require.NoError(t, err)

	journal := bus.Journal()
	require.Len(t, journal, 2)
	require.Equal(t, events.TopicSaleCompleted, journal[0].Topic)
	require.Equal(t, events.TopicSalePartiallyRefunded, journal[1].Topic)
	require.Equal(t, created.ID(), journal[0].AggregateID)
}

func TestServiceCancelAndRefundEmit(t *testing.T) {
	svc, meds, bus := newTestService(t)
	med := seedMedication(t, meds, "Omeprazole 20mg", "10.00")

	cancelled, err := svc.Create(context.Background())
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), cancelled.ID(), "duplicate entry")
	require.NoError(t, err)

	refunded, err := svc.Create(context.Background())
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), refunded.ID(), med.ID, 1)
	require.NoError(t, err)
	_, err = svc.Complete(context.Background(), refunded.ID())
	require.NoError(t, err)
	_, err = svc.Refund(context.Background(), refunded.ID())
	require.NoError(t, err)

	var topics []string
	for _, ev := range bus.Journal() {
		topics = append(topics, ev.Topic)
	}
	require.Equal(t, []string{
		events.TopicSaleCancelled,
		events.TopicSaleCompleted,
		events.TopicSaleRefunded,
	}, topics)
}

func TestServiceListOrdersByCreation(t *testing.T) {
	svc, _, _ := newTestService(t)
	first, err := svc.Create(context.Background())
	require.NoError(t, err)
	second, err := svc.Create(context.Background())
	require.NoError(t, err)

	listed := svc.List(context.Background())
	require.Len(t, listed, 2)
	refs := []string{listed[0].Reference(), listed[1].Reference()}
	require.Contains(t, refs, first.Reference())
	require.Contains(t, refs, second.Reference())
}

func TestConcurrentReadsDuringMutation(t *testing.T) {
	svc, meds, _ := newTestService(t)
	med := seedMedication(t, meds, "Paracetamol 500mg", "10.00")

	created, err := svc.Create(context.Background())
	require.NoError(t, err)

	const writes = 50
	var wg sync.WaitGroup
	var writeErr error
	start := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < writes; i++ {
			if _, err := svc.AddItem(context.Background(), created.ID(), med.ID, 1); err != nil {
				writeErr = err
				return
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < writes; i++ {
			got, err := svc.Get(context.Background(), created.ID())
			if err != nil {
				continue
			}
			snap := got.Snapshot()
			if len(snap.Items) == 0 {
				continue
			}
			_ = got.Total()
			_ = got.Items()
		}
	}()

	close(start)
	wg.Wait()
	require.NoError(t, writeErr)

	final, err := svc.Get(context.Background(), created.ID())
	require.NoError(t, err)
	snap := final.Snapshot()
	require.Len(t, snap.Items, writes)
	require.Equal(t, "$500.00", snap.Subtotal.String())

	// the snapshot is internally consistent: total = subtotal - discount + tax
	taxable, err := snap.Subtotal.Sub(snap.Discount)
	require.NoError(t, err)
	wantTotal, err := taxable.Add(snap.TaxAmount)
	require.NoError(t, err)
	require.True(t, snap.Total.Equal(wantTotal))
}

func TestServiceDiscounts(t *testing.T) {
	svc, meds, _ := newTestService(t)
	med := seedMedication(t, meds, "Paracetamol 500mg", "10.00")

	created, err := svc.Create(context.Background())
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), created.ID(), med.ID, 3)
	require.NoError(t, err)

	updated, err := svc.ApplyDiscountPercent(context.Background(), created.ID(), decimal.NewFromInt(10), "loyalty")
	require.NoError(t, err)
	require.Equal(t, "$31.05", updated.Total().String())

	fixed, err := money.NewFromString("1.00", "USD")
	require.NoError(t, err)
	updated, err = svc.ApplyDiscountAmount(context.Background(), created.ID(), fixed, "")
	require.NoError(t, err)
	require.Equal(t, "$1.00", updated.Discount().String())
}
