package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/luminis-shop/luminis-api/internal/catalog"
)

// DB is the subset of pgxpool.Pool the ledger needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repo struct{ DB DB }

// Place validates the input, then runs every stock decrement and the order
// insert in one transaction. Any miss rolls the whole thing back; no partial
// decrement ever survives this call.
func (r *Repo) Place(ctx context.Context, in PlaceOrderInput) (*Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}

	o, err := placeInTx(ctx, tx, in)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return o, nil
}

func placeInTx(ctx context.Context, tx pgx.Tx, in PlaceOrderInput) (*Order, error) {
	for _, it := range in.Items {
		var name string
		var isSet bool
		err := tx.QueryRow(ctx, `SELECT name, is_set FROM products WHERE id = $1`, it.ID).
			Scan(&name, &isSet)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ProductNotFoundError{ID: it.ID}
		}
		if err != nil {
			return nil, fmt.Errorf("lookup product %d: %w", it.ID, err)
		}

		n, err := catalog.DecrementStock(ctx, tx, it.ID, it.Quantity)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, &InsufficientStockError{Product: name}
		}

		// A set consumes the bundle row and the chosen component row together.
		if isSet {
			if it.Option == 0 {
				return nil, fmt.Errorf("%w: set product %d requires an option", ErrValidation, it.ID)
			}
			n, err = catalog.DecrementStock(ctx, tx, it.Option, it.Quantity)
			if err != nil {
				return nil, err
			}
			if n == 0 {
				return nil, &InsufficientStockError{Product: name}
			}
		}
	}

	itemsJSON, err := json.Marshal(in.Items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}

	o := Order{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Address:   in.Address,
		City:      in.City,
		Note:      in.Note,
		Items:     in.Items,
		Status:    StatusPending,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (first_name, last_name, phone, address, city, note, order_items, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at`,
		in.FirstName, in.LastName, in.Phone, in.Address, in.City, in.Note, itemsJSON, StatusPending,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return &o, nil
}

// List returns all orders, newest first.
func (r *Repo) List(ctx context.Context) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, first_name, last_name, phone, address, city, note, order_items, status, created_at
		FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		var items []byte
		if err := rows.Scan(&o.ID, &o.FirstName, &o.LastName, &o.Phone, &o.Address,
			&o.City, &o.Note, &items, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode items for order %d: %w", o.ID, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateStatus writes a new status after checking the order exists and the
// transition passes the policy gate.
func (r *Repo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	var cur Status
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup order %d: %w", id, err)
	}
	if !CanTransition(cur, status) {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, cur, status)
	}
	ct, err := r.DB.Exec(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	// the order can be cancelled between the read and the write
	if ct.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// Cancel deletes an order and, unless it already shipped, returns its stock
// first. Restock and delete share one transaction: a failed increment aborts
// the cancellation instead of leaving half the stock returned.
func (r *Repo) Cancel(ctx context.Context, id int64) (restocked bool, err error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}

	restocked, err = cancelInTx(ctx, tx, id)
	if err != nil {
		_ = tx.Rollback(ctx)
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return restocked, nil
}

func cancelInTx(ctx context.Context, tx pgx.Tx, id int64) (restocked bool, err error) {
	var status Status
	var raw []byte
	err = tx.QueryRow(ctx, `SELECT status, order_items FROM orders WHERE id = $1`, id).
		Scan(&status, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrOrderNotFound
	}
	if err != nil {
		return false, fmt.Errorf("lookup order %d: %w", id, err)
	}

	if status != StatusShipped {
		var items []LineItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return false, fmt.Errorf("decode items for order %d: %w", id, err)
		}
		for _, it := range items {
			if it.Option != 0 {
				n, err := catalog.IncrementStock(ctx, tx, it.Option, it.Quantity)
				if err != nil {
					return false, err
				}
				if n == 0 {
					return false, &ProductNotFoundError{ID: it.Option}
				}
			}
			n, err := catalog.IncrementStock(ctx, tx, it.ID, it.Quantity)
			if err != nil {
				return false, err
			}
			if n == 0 {
				return false, &ProductNotFoundError{ID: it.ID}
			}
		}
		restocked = true
	}

	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return false, fmt.Errorf("delete order: %w", err)
	}
	return restocked, nil
}
