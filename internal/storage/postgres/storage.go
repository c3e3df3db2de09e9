package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/soletrea/atelier/internal/domain/errors"
	"github.com/soletrea/atelier/internal/domain/model"
	"github.com/soletrea/atelier/internal/domain/repository"
)

// pgxPool is the subset of pgxpool.Pool the storage uses; pgxmock
// substitutes it in tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type productRepository struct {
	storage *Storage
}

type orderRepository struct {
	storage *Storage
}

type outboxRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Products() repository.ProductRepository {
	return &productRepository{storage: s}
}

func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Outbox() repository.OutboxRepository {
	return &outboxRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
            id TEXT PRIMARY KEY,
            consignor_id TEXT NOT NULL,
            name TEXT NOT NULL,
            brand TEXT NOT NULL DEFAULT '',
            price_cents BIGINT NOT NULL,
            status TEXT NOT NULL DEFAULT 'ACTIVE',
            reserved_by TEXT,
            reserved_until TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS orders (
            id TEXT PRIMARY KEY,
            number TEXT UNIQUE NOT NULL,
            buyer_id TEXT NOT NULL,
            product_id TEXT NOT NULL REFERENCES products(id),
            product_name TEXT NOT NULL,
            price_cents BIGINT NOT NULL,
            status TEXT NOT NULL,
            payment_status TEXT NOT NULL,
            payment_session_id TEXT,
            shipping_name TEXT NOT NULL DEFAULT '',
            shipping_address1 TEXT NOT NULL DEFAULT '',
            shipping_address2 TEXT NOT NULL DEFAULT '',
            shipping_city TEXT NOT NULL DEFAULT '',
            shipping_postal_code TEXT NOT NULL DEFAULT '',
            shipping_country TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
            id TEXT PRIMARY KEY,
            event_type TEXT NOT NULL,
            aggregate_id TEXT NOT NULL,
            payload JSONB NOT NULL,
            status TEXT NOT NULL DEFAULT 'PENDING',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            published_at TIMESTAMPTZ
        )`,
		`CREATE INDEX IF NOT EXISTS idx_products_reserved ON products(status, reserved_until)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_session ON orders(payment_session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox_events(status, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- ProductRepository implementation ---

const productColumns = `id, consignor_id, name, brand, price_cents, status, reserved_by, reserved_until, created_at, updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.ConsignorID, &p.Name, &p.Brand, &p.PriceCents, &p.Status,
		&p.ReservedBy, &p.ReservedUntil, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE id=$1`
	return scanProduct(r.storage.pool.QueryRow(ctx, query, id))
}

func (r *productRepository) List(ctx context.Context) ([]model.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products
                   WHERE status <> 'INACTIVE'
                   ORDER BY status='ACTIVE' DESC, created_at DESC`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.ConsignorID, &p.Name, &p.Brand, &p.PriceCents, &p.Status,
			&p.ReservedBy, &p.ReservedUntil, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Reserve is the single compare-and-set the whole checkout hinges on.
// The WHERE clause admits exactly one writer: an ACTIVE item, an
// expired hold, or the same buyer extending their own hold. Concurrent
// attempts for the same item serialize on the row and all but one see
// zero rows affected.
func (r *productRepository) Reserve(ctx context.Context, productID, buyerID string, until time.Time) error {
	const query = `UPDATE products
                   SET status='RESERVED', reserved_by=$2, reserved_until=$3, updated_at=NOW()
                   WHERE id=$1
                     AND (status='ACTIVE'
                          OR (status='RESERVED' AND (reserved_until <= NOW() OR reserved_by=$2)))`
	tag, err := r.storage.pool.Exec(ctx, query, productID, buyerID, until)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	if _, err := r.GetByID(ctx, productID); err != nil {
		return err
	}
	return domainErrors.ErrConflict
}

func (r *productRepository) Release(ctx context.Context, productID, buyerID string) error {
	const query = `UPDATE products
                   SET status='ACTIVE', reserved_by=NULL, reserved_until=NULL, updated_at=NOW()
                   WHERE id=$1 AND status='RESERVED' AND reserved_by=$2`
	// Zero rows affected means the buyer no longer holds the item,
	// so there is nothing to release.
	_, err := r.storage.pool.Exec(ctx, query, productID, buyerID)
	return err
}

func (r *productRepository) ReleaseExpired(ctx context.Context, productID string, now time.Time) (bool, error) {
	const query = `UPDATE products
                   SET status='ACTIVE', reserved_by=NULL, reserved_until=NULL, updated_at=NOW()
                   WHERE id=$1 AND status='RESERVED' AND reserved_until <= $2`
	tag, err := r.storage.pool.Exec(ctx, query, productID, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkSold finalizes only the buyer's own live hold. A confirm arriving
// after the hold expired and the item moved on must not sell the item
// out from under the current holder, so zero rows affected is a
// conflict, not a success.
func (r *productRepository) MarkSold(ctx context.Context, productID, buyerID string) error {
	const query = `UPDATE products
                   SET status='SOLD', reserved_by=NULL, reserved_until=NULL, updated_at=NOW()
                   WHERE id=$1 AND status='RESERVED' AND reserved_by=$2`
	tag, err := r.storage.pool.Exec(ctx, query, productID, buyerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	if _, err := r.GetByID(ctx, productID); err != nil {
		return err
	}
	return domainErrors.ErrConflict
}

func (r *productRepository) ExpiredReservations(ctx context.Context, now time.Time, limit int) ([]string, error) {
	const query = `SELECT id FROM products
                   WHERE status='RESERVED' AND reserved_until <= $1
                   ORDER BY reserved_until
                   LIMIT $2`
	rows, err := r.storage.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// --- OrderRepository implementation ---

const orderColumns = `id, number, buyer_id, product_id, product_name, price_cents, status, payment_status,
                      payment_session_id, shipping_name, shipping_address1, shipping_address2,
                      shipping_city, shipping_postal_code, shipping_country, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.Number, &o.BuyerID, &o.ProductID, &o.ProductName, &o.PriceCents,
		&o.Status, &o.PaymentStatus, &o.PaymentSessionID,
		&o.Shipping.Name, &o.Shipping.AddressLine1, &o.Shipping.AddressLine2,
		&o.Shipping.City, &o.Shipping.PostalCode, &o.Shipping.Country,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	const query = `INSERT INTO orders (id, number, buyer_id, product_id, product_name, price_cents,
                                       status, payment_status, shipping_name, shipping_address1,
                                       shipping_address2, shipping_city, shipping_postal_code, shipping_country)
                   VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
                   RETURNING created_at, updated_at`
	err := r.storage.pool.QueryRow(ctx, query,
		order.ID, order.Number, order.BuyerID, order.ProductID, order.ProductName, order.PriceCents,
		order.Status, order.PaymentStatus,
		order.Shipping.Name, order.Shipping.AddressLine1, order.Shipping.AddressLine2,
		order.Shipping.City, order.Shipping.PostalCode, order.Shipping.Country,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	return err
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	return scanOrder(r.storage.pool.QueryRow(ctx, query, id))
}

func (r *orderRepository) GetBySession(ctx context.Context, sessionID string) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE payment_session_id=$1`
	return scanOrder(r.storage.pool.QueryRow(ctx, query, sessionID))
}

func (r *orderRepository) AttachPaymentSession(ctx context.Context, orderID, sessionID string) error {
	const query = `UPDATE orders SET payment_session_id=$2, updated_at=NOW() WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, orderID, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, payment model.PaymentStatus) error {
	const query = `UPDATE orders SET status=$2, payment_status=$3, updated_at=NOW() WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, orderID, status, payment)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// --- OutboxRepository implementation ---

func (r *outboxRepository) Append(ctx context.Context, event *model.OutboxEvent) error {
	const query = `INSERT INTO outbox_events (id, event_type, aggregate_id, payload, status)
                   VALUES ($1,$2,$3,$4,$5)
                   RETURNING created_at`
	return r.storage.pool.QueryRow(ctx, query,
		event.ID, event.Type, event.AggregateID, event.Payload, model.OutboxStatusPending,
	).Scan(&event.CreatedAt)
}

// SelectBatchForPublishing also reclaims PUBLISHING rows whose claim
// went stale: a dispatcher that crashed between claim and publish would
// otherwise strand them forever.
func (r *outboxRepository) SelectBatchForPublishing(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	const selectQuery = `SELECT id, event_type, aggregate_id, payload, status, created_at, published_at
                         FROM outbox_events
                         WHERE status='PENDING'
                            OR (status='PUBLISHING' AND updated_at <= NOW() - INTERVAL '60 seconds')
                         ORDER BY created_at
                         LIMIT $1
                         FOR UPDATE SKIP LOCKED`

	var events []model.OutboxEvent
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var ev model.OutboxEvent
			if err := rows.Scan(&ev.ID, &ev.Type, &ev.AggregateID, &ev.Payload, &ev.Status, &ev.CreatedAt, &ev.PublishedAt); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `UPDATE outbox_events SET status='PUBLISHING', updated_at=NOW() WHERE id=$1`, ev.ID); err != nil {
				return err
			}
			ev.Status = model.OutboxStatusPublishing
			events = append(events, ev)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, id string) error {
	const query = `UPDATE outbox_events SET status='PUBLISHED', updated_at=NOW(), published_at=NOW() WHERE id=$1`
	_, err := r.storage.pool.Exec(ctx, query, id)
	return err
}

func (r *outboxRepository) Requeue(ctx context.Context, id string) error {
	const query = `UPDATE outbox_events SET status='PENDING', updated_at=NOW() WHERE id=$1 AND status='PUBLISHING'`
	_, err := r.storage.pool.Exec(ctx, query, id)
	return err
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
