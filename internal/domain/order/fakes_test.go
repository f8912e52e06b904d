package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/scoop/internal/domain/customer"
	"github.com/xenking/scoop/internal/domain/flavor"
)

// memStore is an in-memory Store. InTx serializes units of work and
// restores the previous state when fn fails.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]Order
	lines  map[int64][]Line

	insertOrderErr error
	insertLinesErr error
	getErr         error
	// txHook runs inside InTx before fn.
	txHook func(ctx context.Context) error

	getCalls   int
	lastFilter ListFilter
}

func newMemStore() *memStore {
	return &memStore{
		orders: map[int64]Order{},
		lines:  map[int64][]Line{},
	}
}

type memTx struct{ s *memStore }

func (s *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make(map[int64]Order, len(s.orders))
	for k, v := range s.orders {
		orders[k] = v
	}
	lines := make(map[int64][]Line, len(s.lines))
	for k, v := range s.lines {
		lines[k] = v
	}

	err := func() error {
		if s.txHook != nil {
			if err := s.txHook(ctx); err != nil {
				return err
			}
		}
		return fn(memTx{s: s})
	}()
	if err != nil {
		s.orders = orders
		s.lines = lines
		return err
	}
	return nil
}

func (t memTx) InsertOrder(_ context.Context, customerID int64, createdAt time.Time, status Status) (int64, error) {
	if t.s.insertOrderErr != nil {
		return 0, t.s.insertOrderErr
	}
	t.s.nextID++
	id := t.s.nextID
	t.s.orders[id] = Order{ID: id, CustomerID: customerID, CreatedAt: createdAt, Status: status}
	return id, nil
}

func (t memTx) InsertLines(_ context.Context, orderID int64, lines []Line) error {
	for i, l := range lines {
		// Simulates a fault after part of the lines have been written.
		if i == len(lines)-1 && t.s.insertLinesErr != nil {
			return t.s.insertLinesErr
		}
		t.s.lines[orderID] = append(t.s.lines[orderID], l)
	}
	return nil
}

func (s *memStore) GetOrder(_ context.Context, id int64) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	if s.getErr != nil {
		return nil, s.getErr
	}
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &o, nil
}

func (s *memStore) GetLines(_ context.Context, orderID int64) ([]Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Line(nil), s.lines[orderID]...), nil
}

func (s *memStore) ListByCustomer(_ context.Context, customerID int64) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *memStore) List(_ context.Context, f ListFilter) ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = f
	var all []Order
	for _, o := range s.orders {
		if f.Status == "" || string(o.Status) == f.Status {
			all = append(all, o)
		}
	}
	sortNewestFirst(all)
	out := []Summary{}
	for i := f.Offset; i < len(all) && len(out) < f.Limit; i++ {
		out = append(out, Summary{Order: all[i]})
	}
	return out, nil
}

func (s *memStore) UpdateStatus(_ context.Context, id int64, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	s.orders[id] = o
	return nil
}

func (s *memStore) count() (orders, lines int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lines {
		lines += len(l)
	}
	return len(s.orders), lines
}

func sortNewestFirst(orders []Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}

type fakeCustomers struct {
	byID map[int64]*customer.Customer
	err  error
}

func newFakeCustomers(ids ...int64) *fakeCustomers {
	c := &fakeCustomers{byID: map[int64]*customer.Customer{}}
	for _, id := range ids {
		c.byID[id] = &customer.Customer{ID: id, Name: "Customer", Email: "c@example.com"}
	}
	return c
}

func (c *fakeCustomers) GetByID(_ context.Context, id int64) (*customer.Customer, error) {
	if c.err != nil {
		return nil, c.err
	}
	v, ok := c.byID[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return v, nil
}

type fakeFlavors struct {
	mu    sync.Mutex
	byID  map[int64]flavor.Flavor
	err   error
	calls int
}

func newFakeFlavors(flavors ...flavor.Flavor) *fakeFlavors {
	f := &fakeFlavors{byID: map[int64]flavor.Flavor{}}
	for _, v := range flavors {
		f.byID[v.ID] = v
	}
	return f
}

func (f *fakeFlavors) GetByIDs(_ context.Context, ids []int64) ([]flavor.Flavor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []flavor.Flavor
	for _, id := range ids {
		if v, ok := f.byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeFlavors) setPrice(id int64, price string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.byID[id]
	v.Price = decimal.RequireFromString(price)
	f.byID[id] = v
}

func testFlavor(id int64, name, price string) flavor.Flavor {
	return flavor.Flavor{
		ID:          id,
		Name:        name,
		Description: name + " scoop",
		Price:       decimal.RequireFromString(price),
	}
}
