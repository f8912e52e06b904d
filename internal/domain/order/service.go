package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "github.com/xenking/scoop/internal/domain/order"

// Config tunes the order service.
type Config struct {
	// TxTimeout bounds the duration of the order creation unit of work.
	TxTimeout time.Duration
	// DefaultPageSize is used by ListOrders when no limit is given.
	DefaultPageSize int
	// MaxPageSize caps the limit accepted by ListOrders.
	MaxPageSize int
}

func (c *Config) setDefaults() {
	if c.TxTimeout <= 0 {
		c.TxTimeout = 5 * time.Second
	}
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 50
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 200
	}
	if c.DefaultPageSize > c.MaxPageSize {
		c.DefaultPageSize = c.MaxPageSize
	}
}

// Option configures optional Service dependencies.
type Option func(*Service)

// WithTracerProvider sets the tracer provider used for order spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider used for order counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meterProvider = mp }
}

// WithClock overrides the clock that stamps new orders.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTransitionPolicy replaces the default Unrestricted status policy.
func WithTransitionPolicy(p TransitionPolicy) Option {
	return func(s *Service) { s.machine = NewStatusMachine(p) }
}

// Service implements the order workflow: atomic creation, pricing, status
// changes and retrieval.
type Service struct {
	store     Store
	customers CustomerFinder
	flavors   FlavorFinder
	validator *Validator
	machine   *StatusMachine
	cfg       Config
	now       func() time.Time

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	created        metric.Int64Counter
	statusChanges  metric.Int64Counter
}

// NewService creates an order Service.
func NewService(
	store Store,
	customers CustomerFinder,
	flavors FlavorFinder,
	cfg Config,
	opts ...Option,
) (*Service, error) {
	cfg.setDefaults()
	s := &Service{
		store:          store,
		customers:      customers,
		flavors:        flavors,
		validator:      NewValidator(customers, flavors),
		machine:        NewStatusMachine(Unrestricted),
		cfg:            cfg,
		now:            time.Now,
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}
	for _, o := range opts {
		o(s)
	}

	s.tracer = s.tracerProvider.Tracer(instrumentationName)
	meter := s.meterProvider.Meter(instrumentationName)

	var err error
	if s.created, err = meter.Int64Counter("scoop.orders.created",
		metric.WithDescription("Orders committed"),
	); err != nil {
		return nil, errors.Wrap(err, "orders.created counter")
	}
	if s.statusChanges, err = meter.Int64Counter("scoop.orders.status_changes",
		metric.WithDescription("Order status updates by target status"),
	); err != nil {
		return nil, errors.Wrap(err, "orders.status_changes counter")
	}
	return s, nil
}

// CreateOrder validates the proposed order and persists the header and all
// lines in one unit of work. Either the whole order becomes visible or
// nothing does; storage failures are returned as *PersistenceError after the
// unit has been rolled back.
func (s *Service) CreateOrder(ctx context.Context, customerID int64, lines []Line) (_ int64, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Create", trace.WithAttributes(
		attribute.Int64("scoop.customer_id", customerID),
		attribute.Int("scoop.order.lines", len(lines)),
	))
	defer func() { endSpan(span, rerr) }()

	if err := s.validator.Validate(ctx, customerID, lines); err != nil {
		return 0, err
	}

	txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	var orderID int64
	err := s.store.InTx(txCtx, func(tx Tx) error {
		id, err := tx.InsertOrder(txCtx, customerID, s.now().UTC(), StatusPending)
		if err != nil {
			return errors.Wrap(err, "insert order")
		}
		if err := tx.InsertLines(txCtx, id, lines); err != nil {
			return errors.Wrapf(err, "insert lines of order %d", id)
		}
		orderID = id
		return nil
	})
	if err != nil {
		return 0, &PersistenceError{Op: "create order", Err: err}
	}

	s.created.Add(ctx, 1)
	span.SetAttributes(attribute.Int64("scoop.order_id", orderID))
	zctx.From(ctx).Info("Order created",
		zap.Int64("order_id", orderID),
		zap.Int64("customer_id", customerID),
		zap.Int("lines", len(lines)),
	)
	return orderID, nil
}

// PriceOrder prices the lines of an existing order at current flavor prices.
func (s *Service) PriceOrder(ctx context.Context, orderID int64) (*Quote, error) {
	if _, err := s.store.GetOrder(ctx, orderID); err != nil {
		return nil, persistence("get order", err)
	}
	q, err := s.quote(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// GetOrderDetail returns the order header with priced lines. Header and
// lines are loaded concurrently.
func (s *Service) GetOrderDetail(ctx context.Context, orderID int64) (*Detail, error) {
	var (
		header *Order
		quote  Quote
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		o, err := s.store.GetOrder(gctx, orderID)
		if err != nil {
			return err
		}
		header = o
		return nil
	})
	g.Go(func() error {
		q, err := s.quote(gctx, orderID)
		if err != nil {
			return err
		}
		quote = q
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, persistence("get order detail", err)
	}
	return &Detail{Order: *header, Quote: quote}, nil
}

func (s *Service) quote(ctx context.Context, orderID int64) (Quote, error) {
	lines, err := s.store.GetLines(ctx, orderID)
	if err != nil {
		return Quote{}, persistence("get order lines", err)
	}
	if len(lines) == 0 {
		return Quote{Lines: []PricedLine{}, Total: decimal.Zero}, nil
	}
	flavors, err := s.flavors.GetByIDs(ctx, distinctFlavorIDs(lines))
	if err != nil {
		return Quote{}, persistence("get flavors", err)
	}
	q, err := Price(lines, flavors)
	if err != nil {
		return Quote{}, &PersistenceError{Op: "price order", Err: err}
	}
	return q, nil
}

// SetStatus moves an order to the requested status. The value is validated
// before any storage access. Concurrent updates of the same order are last
// write wins.
func (s *Service) SetStatus(ctx context.Context, orderID int64, status string) (rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.SetStatus", trace.WithAttributes(
		attribute.Int64("scoop.order_id", orderID),
		attribute.String("scoop.order.status", status),
	))
	defer func() { endSpan(span, rerr) }()

	next, err := ParseStatus(status)
	if err != nil {
		return err
	}

	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return persistence("get order", err)
	}
	if err := s.machine.Transition(o.Status, next); err != nil {
		return err
	}
	if err := s.store.UpdateStatus(ctx, orderID, next); err != nil {
		return persistence("update order status", err)
	}

	s.statusChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("status", next.String())))
	zctx.From(ctx).Info("Order status changed",
		zap.Int64("order_id", orderID),
		zap.Stringer("from", o.Status),
		zap.Stringer("to", next),
	)
	return nil
}

// GetOrdersForCustomer returns the customer's orders, newest first.
func (s *Service) GetOrdersForCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	if err := s.validator.checkCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	orders, err := s.store.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, persistence("list customer orders", err)
	}
	return orders, nil
}

// ListOrders returns a page of orders for administration, newest first. The
// status filter is not validated: an unknown value yields an empty page.
func (s *Service) ListOrders(ctx context.Context, filter ListFilter) ([]Summary, error) {
	filter = s.normalizeFilter(filter)
	orders, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, persistence("list orders", err)
	}
	return orders, nil
}

func (s *Service) normalizeFilter(f ListFilter) ListFilter {
	if f.Status != "" {
		if st, err := ParseStatus(f.Status); err == nil {
			f.Status = st.String()
		}
	}
	switch {
	case f.Limit <= 0:
		f.Limit = s.cfg.DefaultPageSize
	case f.Limit > s.cfg.MaxPageSize:
		f.Limit = s.cfg.MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, KindOf(err).String())
	}
	span.End()
}
