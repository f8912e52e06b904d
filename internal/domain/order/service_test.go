package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	svc       *Service
	store     *memStore
	customers *fakeCustomers
	flavors   *fakeFlavors
}

func newFixture(t *testing.T, opts ...Option) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		store:     newMemStore(),
		customers: newFakeCustomers(7, 8),
		flavors: newFakeFlavors(
			testFlavor(1, "Vanilla", "5.50"),
			testFlavor(2, "Chocolate", "3.25"),
		),
	}

	var mu sync.Mutex
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}

	svc, err := NewService(f.store, f.customers, f.flavors, Config{},
		append([]Option{WithClock(clock)}, opts...)...)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.CreateOrder(ctx, 7, []Line{
		{FlavorID: 1, Quantity: 2},
		{FlavorID: 2, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	detail, err := f.svc.GetOrderDetail(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, detail.ID)
	assert.Equal(t, int64(7), detail.CustomerID)
	assert.Equal(t, StatusPending, detail.Status)
	assert.False(t, detail.CreatedAt.IsZero())
	require.Len(t, detail.Quote.Lines, 2)
	assert.Equal(t, "14.25", detail.Quote.TotalString())
}

func TestCreateOrder_ValidationWritesNothing(t *testing.T) {
	tests := []struct {
		name       string
		customerID int64
		lines      []Line
		kind       Kind
	}{
		{"MissingCustomer", 99, []Line{{FlavorID: 1, Quantity: 1}}, KindNotFound},
		{"Empty", 7, nil, KindValidation},
		{"ZeroQuantity", 7, []Line{{FlavorID: 1, Quantity: 0}}, KindValidation},
		{"UnknownFlavor", 7, []Line{{FlavorID: 1, Quantity: 1}, {FlavorID: 999, Quantity: 1}}, KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.CreateOrder(context.Background(), tt.customerID, tt.lines)
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))

			orders, lines := f.store.count()
			assert.Zero(t, orders)
			assert.Zero(t, lines)
		})
	}
}

func TestCreateOrder_LineFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.store.insertLinesErr = errors.New("foreign key violation")

	_, err := f.svc.CreateOrder(context.Background(), 7, []Line{
		{FlavorID: 1, Quantity: 1},
		{FlavorID: 2, Quantity: 1},
		{FlavorID: 1, Quantity: 4},
	})
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindPersistence, KindOf(err))

	orders, lines := f.store.count()
	assert.Zero(t, orders, "header must not survive a failed unit")
	assert.Zero(t, lines, "no partial lines")

	list, err := f.svc.GetOrdersForCustomer(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateOrder_HeaderFailure(t *testing.T) {
	f := newFixture(t)
	f.store.insertOrderErr = errors.New("connection reset")

	_, err := f.svc.CreateOrder(context.Background(), 7, []Line{{FlavorID: 1, Quantity: 1}})
	assert.Equal(t, KindPersistence, KindOf(err))
	orders, _ := f.store.count()
	assert.Zero(t, orders)
}

func TestCreateOrder_Timeout(t *testing.T) {
	store := newMemStore()
	store.txHook = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	svc, err := NewService(store, newFakeCustomers(7), newFakeFlavors(testFlavor(1, "Vanilla", "5.50")),
		Config{TxTimeout: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = svc.CreateOrder(context.Background(), 7, []Line{{FlavorID: 1, Quantity: 1}})
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCreateOrder_ConcurrentIDsAreDistinct(t *testing.T) {
	f := newFixture(t)
	const n = 32

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[int64]struct{}{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			customerID := int64(7 + i%2)
			id, err := f.svc.CreateOrder(context.Background(), customerID, []Line{{FlavorID: 1, Quantity: i + 1}})
			assert.NoError(t, err)
			mu.Lock()
			ids[id] = struct{}{}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Len(t, ids, n)
	orders, lines := f.store.count()
	assert.Equal(t, n, orders)
	assert.Equal(t, n, lines)
}

func TestGetOrderDetail_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetOrderDetail(context.Background(), 404)
	require.ErrorIs(t, err, ErrOrderNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestPriceOrder_UsesCurrentPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.svc.CreateOrder(ctx, 7, []Line{{FlavorID: 1, Quantity: 2}, {FlavorID: 2, Quantity: 1}})
	require.NoError(t, err)

	q, err := f.svc.PriceOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "14.25", q.TotalString())

	f.flavors.setPrice(1, "6.00")
	q, err = f.svc.PriceOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "15.25", q.TotalString())
}

func TestPriceOrder_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PriceOrder(context.Background(), 1)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestPriceOrder_FlavorVanished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.svc.CreateOrder(ctx, 7, []Line{{FlavorID: 2, Quantity: 1}})
	require.NoError(t, err)

	delete(f.flavors.byID, 2)
	_, err = f.svc.PriceOrder(ctx, id)
	assert.Equal(t, KindPersistence, KindOf(err))
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.svc.CreateOrder(ctx, 7, []Line{{FlavorID: 1, Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, f.svc.SetStatus(ctx, id, "Ready"))
	o, err := f.store.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, o.Status)

	// Legacy labels are accepted.
	require.NoError(t, f.svc.SetStatus(ctx, id, "Entregue"))
	o, err = f.store.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, o.Status)

	// Terminal statuses can be left.
	require.NoError(t, f.svc.SetStatus(ctx, id, "Pending"))
}

func TestSetStatus_InvalidBeforeLookup(t *testing.T) {
	f := newFixture(t)
	f.store.getErr = errors.New("must not be called")

	err := f.svc.SetStatus(context.Background(), 1, "Shipped")
	var se *InvalidStatusError
	require.ErrorAs(t, err, &se)
	assert.Zero(t, f.store.getCalls)
}

func TestSetStatus_NotFound(t *testing.T) {
	f := newFixture(t)
	err := f.svc.SetStatus(context.Background(), 12, "Ready")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestSetStatus_PolicyRejects(t *testing.T) {
	errClosed := errors.New("closed")
	f := newFixture(t, WithTransitionPolicy(func(from, _ Status) error {
		if from == StatusCancelled {
			return errClosed
		}
		return nil
	}))
	ctx := context.Background()
	id, err := f.svc.CreateOrder(ctx, 7, []Line{{FlavorID: 1, Quantity: 1}})
	require.NoError(t, err)
	require.NoError(t, f.svc.SetStatus(ctx, id, "Cancelled"))

	err = f.svc.SetStatus(ctx, id, "Pending")
	require.ErrorIs(t, err, errClosed)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestGetOrdersForCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateOrder(ctx, 7, []Line{{FlavorID: 1, Quantity: 1}})
	require.NoError(t, err)
	_, err = f.svc.CreateOrder(ctx, 8, []Line{{FlavorID: 1, Quantity: 1}})
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(ctx, 7, []Line{{FlavorID: 2, Quantity: 1}})
	require.NoError(t, err)

	orders, err := f.svc.GetOrdersForCustomer(ctx, 7)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second, orders[0].ID)
	assert.Equal(t, first, orders[1].ID)
}

func TestGetOrdersForCustomer_MissingCustomer(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetOrdersForCustomer(context.Background(), 99)
	require.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestListOrders_Filter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateOrder(ctx, 7, []Line{{FlavorID: 1, Quantity: 1}})
		require.NoError(t, err)
	}
	require.NoError(t, f.svc.SetStatus(ctx, 2, "Ready"))

	ready, err := f.svc.ListOrders(ctx, ListFilter{Status: "Pronto"})
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, int64(2), ready[0].ID)
	assert.Equal(t, "Ready", f.store.lastFilter.Status)

	none, err := f.svc.ListOrders(ctx, ListFilter{Status: "Shipped"})
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := f.svc.ListOrders(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].ID)
}

func TestListOrders_Paging(t *testing.T) {
	tests := []struct {
		name       string
		in         ListFilter
		wantLimit  int
		wantOffset int
	}{
		{"Defaults", ListFilter{}, 50, 0},
		{"Clamped", ListFilter{Limit: 10_000, Offset: 5}, 200, 5},
		{"NegativeOffset", ListFilter{Limit: 3, Offset: -1}, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.ListOrders(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, f.store.lastFilter.Limit)
			assert.Equal(t, tt.wantOffset, f.store.lastFilter.Offset)
		})
	}
}
