package ordersvc

import (
	"context"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/delivery/internal/dal/interfaces/idishrepo"
	"github.com/corray333/backend-labs/delivery/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/delivery/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/delivery/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/delivery/internal/dal/interfaces/irestaurantrepo"
	"github.com/corray333/backend-labs/delivery/internal/dal/postgres"
	dishrepo "github.com/corray333/backend-labs/delivery/internal/dal/repositories/dish/postgres"
	restaurantrepo "github.com/corray333/backend-labs/delivery/internal/dal/repositories/restaurant/postgres"
	"github.com/corray333/backend-labs/delivery/internal/dal/uow"
	"github.com/corray333/backend-labs/delivery/internal/pubsub"
	"github.com/corray333/backend-labs/delivery/internal/service/errs"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPageSize   = 25
	defaultExchange   = "delivery.orders"
	defaultMaxRetries = 5
)

var tracer = otel.Tracer("github.com/corray333/backend-labs/delivery/ordersvc")

// UnitOfWork groups the repositories that change together when an order changes.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

type bus interface {
	Publish(ctx context.Context, e pubsub.Event)
	Subscribe(ctx context.Context, topic pubsub.Topic, filter pubsub.Filter) *pubsub.Subscription
}

// OrderService places orders, moves them through their lifecycle and streams order events.
type OrderService struct {
	newUOW         func() UnitOfWork
	restaurantRepo irestaurantrepo.IRestaurantRepository
	dishRepo       idishrepo.IDishRepository
	bus            bus

	exchange   string
	maxRetries int
	pageSize   int
	now        func() time.Time
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService and panics when a dependency is missing.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		exchange:   viper.GetString("rabbitmq.exchange"),
		maxRetries: viper.GetInt("rabbitmq.outbox.max_retries"),
		pageSize:   viper.GetInt("orders.page_size"),
		now:        time.Now,
	}
	if s.exchange == "" {
		s.exchange = defaultExchange
	}
	if s.maxRetries <= 0 {
		s.maxRetries = defaultMaxRetries
	}
	if s.pageSize <= 0 {
		s.pageSize = defaultPageSize
	}

	for _, opt := range opts {
		opt(s)
	}

	switch {
	case s.newUOW == nil:
		panic("ordersvc: unit of work is not configured")
	case s.restaurantRepo == nil:
		panic("ordersvc: restaurant repository is not configured")
	case s.dishRepo == nil:
		panic("ordersvc: dish repository is not configured")
	case s.bus == nil:
		panic("ordersvc: notification bus is not configured")
	}

	return s
}

// WithPostgresClient wires the Postgres unit of work and read repositories.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.newUOW = func() UnitOfWork {
			return uow.NewUnitOfWork(pgClient)
		}
		s.restaurantRepo = restaurantrepo.NewPostgresRestaurantRepository(pgClient.Pool())
		s.dishRepo = dishrepo.NewPostgresDishRepository(pgClient.Pool())
	}
}

// WithUnitOfWork sets the factory of units of work.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWork(newUOW func() UnitOfWork) option {
	return func(s *OrderService) {
		s.newUOW = newUOW
	}
}

// WithRestaurantRepository sets the restaurant repository.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRestaurantRepository(repo irestaurantrepo.IRestaurantRepository) option {
	return func(s *OrderService) {
		s.restaurantRepo = repo
	}
}

// WithDishRepository sets the dish repository.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithDishRepository(repo idishrepo.IDishRepository) option {
	return func(s *OrderService) {
		s.dishRepo = repo
	}
}

// WithBus sets the notification bus order events are published to.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithBus(b *pubsub.Bus) option {
	return func(s *OrderService) {
		s.bus = b
	}
}

// WithExchange sets the RabbitMQ exchange recorded on outbox messages.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithExchange(exchange string) option {
	return func(s *OrderService) {
		s.exchange = exchange
	}
}

// WithPageSize sets the page size of order listings.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPageSize(size int) option {
	return func(s *OrderService) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithClock replaces time.Now.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *OrderService) {
		s.now = now
	}
}

// fail turns err into a caller-safe error. Unclassified causes are logged and replaced by msg.
func (s *OrderService) fail(ctx context.Context, err error, msg string, args ...any) error {
	if errs.KindOf(err) == errs.KindUnexpected {
		slog.ErrorContext(ctx, msg, append(args, "error", err)...)
	}

	return errs.Wrap(err, msg)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
