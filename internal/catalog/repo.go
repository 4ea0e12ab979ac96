package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DB is the subset of pgxpool.Pool the catalog needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var ErrProductNotFound = errors.New("product not found")

type Repo struct{ DB DB }

// ListProducts returns the catalog, optionally filtered by brand, id ascending.
func (r *Repo) ListProducts(ctx context.Context, brand string) ([]Product, error) {
	q := `SELECT id, brand, name, price, discount_price, description, quantity, is_set, updated_at
	      FROM products`
	args := []any{}
	if brand != "" {
		q += ` WHERE brand = $1`
		args = append(args, brand)
	}
	q += ` ORDER BY id ASC`

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Brand, &p.Name, &p.Price, &p.DiscountPrice,
			&p.Description, &p.Quantity, &p.IsSet, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, brand, name, price, discount_price, description, quantity, is_set, updated_at
		FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Brand, &p.Name, &p.Price, &p.DiscountPrice,
		&p.Description, &p.Quantity, &p.IsSet, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (r *Repo) ListQuantities(ctx context.Context) ([]ProductQuantity, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, brand, name, quantity FROM products ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query quantities: %w", err)
	}
	defer rows.Close()

	var out []ProductQuantity
	for rows.Next() {
		var p ProductQuantity
		if err := rows.Scan(&p.ID, &p.Brand, &p.Name, &p.Quantity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListSetOptions returns the in-stock components of a set product.
func (r *Repo) ListSetOptions(ctx context.Context, setID int64) ([]SetOption, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT p.id, p.name, p.price, p.quantity
		FROM set_options so
		JOIN products p ON p.id = so.option_id
		WHERE so.set_id = $1 AND p.quantity > 0
		ORDER BY p.id ASC`, setID)
	if err != nil {
		return nil, fmt.Errorf("query set options: %w", err)
	}
	defer rows.Close()

	var out []SetOption
	for rows.Next() {
		var o SetOption
		if err := rows.Scan(&o.OptionID, &o.Name, &o.Price, &o.Quantity); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
