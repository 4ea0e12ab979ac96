package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DecrementStock takes qty units off a product inside the caller's
// transaction. The check and the write are one statement, so two competing
// orders can never both pass a read-then-write gap; the loser simply affects
// zero rows. Returns the number of rows updated (0 = insufficient stock or
// unknown product).
func DecrementStock(ctx context.Context, tx pgx.Tx, productID int64, qty int) (int64, error) {
	ct, err := tx.Exec(ctx, `
		UPDATE products
		SET quantity = quantity - $1, updated_at = NOW()
		WHERE id = $2 AND quantity >= $1`, qty, productID)
	if err != nil {
		return 0, fmt.Errorf("decrement stock: %w", err)
	}
	return ct.RowsAffected(), nil
}

// IncrementStock returns qty units to a product inside the caller's
// transaction. Returns the number of rows updated (0 = unknown product).
func IncrementStock(ctx context.Context, tx pgx.Tx, productID int64, qty int) (int64, error) {
	ct, err := tx.Exec(ctx, `
		UPDATE products
		SET quantity = quantity + $1, updated_at = NOW()
		WHERE id = $2`, qty, productID)
	if err != nil {
		return 0, fmt.Errorf("increment stock: %w", err)
	}
	return ct.RowsAffected(), nil
}
