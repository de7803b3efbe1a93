package uow

import (
	"context"
	"errors"

	"github.com/corray333/backend-labs/delivery/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/delivery/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/delivery/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/delivery/internal/dal/postgres"
	orderrepo "github.com/corray333/backend-labs/delivery/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/corray333/backend-labs/delivery/internal/dal/repositories/orderitem/postgres"
	outboxrepo "github.com/corray333/backend-labs/delivery/internal/dal/repositories/outbox/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UnitOfWork groups the order, order item and outbox repositories over one connection.
// Before Begin the repositories use the pool, after it they share the transaction.
type UnitOfWork struct {
	pool          *pgxpool.Pool
	tx            pgx.Tx
	orderRepo     *orderrepo.PostgresOrderRepository
	orderItemRepo *orderitemrepo.PostgresOrderItemRepository
	outboxRepo    *outboxrepo.OutboxRepository
}

// NewUnitOfWork creates a unit of work over the client's pool.
func NewUnitOfWork(client *postgres.Client) *UnitOfWork {
	u := &UnitOfWork{pool: client.Pool()}
	u.bind(client.Pool())

	return u
}

func (u *UnitOfWork) bind(conn postgres.Conn) {
	u.orderRepo = orderrepo.NewPostgresOrderRepository(conn)
	u.orderItemRepo = orderitemrepo.NewPostgresOrderItemRepository(conn)
	u.outboxRepo = outboxrepo.NewOutboxRepository(conn)
}

func (u *UnitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *UnitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

func (u *UnitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

// Begin opens a transaction and rebinds the repositories to it.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return errors.New("transaction already started")
	}

	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return err
	}

	u.tx = tx
	u.bind(tx)

	return nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Commit(ctx)
	u.reset()

	return err
}

// Rollback aborts the transaction. It is a no-op after Commit.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback(ctx)
	u.reset()
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}

	return err
}

func (u *UnitOfWork) reset() {
	u.tx = nil
	u.bind(u.pool)
}
