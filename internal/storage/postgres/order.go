package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oatandmatcha/storefront/internal/domain/order"
)

const orderColumns = `reference, checkout_id, status, amount_pence, currency,
	location, postcode, first_name, last_name, phone, address_line1,
	address_line2, city, notes, needs_spoons, details, description,
	created_at, paid_at`

const createOrderSQL = `INSERT INTO orders (` + orderColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

const selectOrderSQL = `SELECT ` + orderColumns + ` FROM orders`

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order record.
func (r *OrderRepository) Create(ctx context.Context, rec *order.Record) error {
	c := rec.Customer
	_, err := r.pool.Exec(ctx, createOrderSQL,
		rec.Reference, rec.CheckoutID, rec.Status, rec.AmountPence, rec.Currency,
		rec.Location, rec.Postcode, c.FirstName, c.LastName, c.Phone, c.AddressLine1,
		c.AddressLine2, c.City, c.Notes, c.NeedsSpoons, rec.Details, rec.Description,
		rec.CreatedAt, rec.PaidAt,
	)
	if err != nil {
		return errors.Wrapf(err, "creating order %q", rec.Reference)
	}
	return nil
}

// GetByReference fetches a single order by its customer-facing reference.
func (r *OrderRepository) GetByReference(ctx context.Context, reference string) (*order.Record, error) {
	return r.getBy(ctx, selectOrderSQL+` WHERE reference = $1`, reference)
}

// GetByCheckoutID fetches a single order by its provider checkout id.
func (r *OrderRepository) GetByCheckoutID(ctx context.Context, checkoutID string) (*order.Record, error) {
	return r.getBy(ctx, selectOrderSQL+` WHERE checkout_id = $1`, checkoutID)
}

func (r *OrderRepository) getBy(ctx context.Context, query string, arg any) (*order.Record, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, errors.Wrap(err, "querying order")
	}

	rec, err := pgx.CollectOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrap(err, "scanning order")
	}
	return rec, nil
}

// ListByStatus returns all orders in the given status. Paid orders come back
// most recently paid first, everything else newest first.
func (r *OrderRepository) ListByStatus(ctx context.Context, status order.Status) ([]order.Record, error) {
	query := selectOrderSQL + ` WHERE status = $1 ORDER BY created_at DESC`
	if status == order.StatusPaid {
		query = selectOrderSQL + ` WHERE status = $1 ORDER BY paid_at DESC`
	}

	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, errors.Wrap(err, "querying orders by status")
	}

	recs, err := pgx.CollectRows(rows, scanOrderValue)
	if err != nil {
		return nil, errors.Wrap(err, "scanning orders")
	}
	return recs, nil
}

// ListPendingBefore returns up to limit pending orders created before the
// given cutoff, oldest first. Used by the payment status poller.
func (r *OrderRepository) ListPendingBefore(ctx context.Context, olderThan time.Time, limit int) ([]order.Record, error) {
	rows, err := r.pool.Query(ctx,
		selectOrderSQL+` WHERE status = 'pending' AND created_at < $1 ORDER BY created_at LIMIT $2`,
		olderThan, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying pending orders")
	}

	recs, err := pgx.CollectRows(rows, scanOrderValue)
	if err != nil {
		return nil, errors.Wrap(err, "scanning pending orders")
	}
	return recs, nil
}

// MarkPaid transitions a pending order to paid. The status guard in the WHERE
// clause makes the transition a compare-and-swap: a redelivered or conflicting
// signal affects zero rows and reports changed=false.
func (r *OrderRepository) MarkPaid(ctx context.Context, checkoutID string, paidAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = 'paid', paid_at = $2 WHERE checkout_id = $1 AND status = 'pending'`,
		checkoutID, paidAt,
	)
	if err != nil {
		return false, errors.Wrapf(err, "marking order paid for checkout %q", checkoutID)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkFailed transitions a pending order to failed under the same
// compare-and-swap guard as MarkPaid. It never sets paid_at.
func (r *OrderRepository) MarkFailed(ctx context.Context, checkoutID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = 'failed' WHERE checkout_id = $1 AND status = 'pending'`,
		checkoutID,
	)
	if err != nil {
		return false, errors.Wrapf(err, "marking order failed for checkout %q", checkoutID)
	}
	return tag.RowsAffected() > 0, nil
}

func scanOrder(row pgx.CollectableRow) (*order.Record, error) {
	var rec order.Record
	err := row.Scan(
		&rec.Reference, &rec.CheckoutID, &rec.Status, &rec.AmountPence, &rec.Currency,
		&rec.Location, &rec.Postcode, &rec.Customer.FirstName, &rec.Customer.LastName,
		&rec.Customer.Phone, &rec.Customer.AddressLine1, &rec.Customer.AddressLine2,
		&rec.Customer.City, &rec.Customer.Notes, &rec.Customer.NeedsSpoons,
		&rec.Details, &rec.Description, &rec.CreatedAt, &rec.PaidAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanOrderValue(row pgx.CollectableRow) (order.Record, error) {
	rec, err := scanOrder(row)
	if err != nil {
		return order.Record{}, err
	}
	return *rec, nil
}
