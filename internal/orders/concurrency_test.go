package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory products table with the same conditional-decrement
// contract as the real one: the check and the write happen under one lock, so
// the loser of a race affects zero rows.
type memStore struct {
	mu        sync.Mutex
	stock     map[int64]int
	names     map[int64]string
	lastOrder int64
}

type memDB struct{ s *memStore }

func (d *memDB) Begin(ctx context.Context) (pgx.Tx, error) { return &memTx{s: d.s}, nil }

func (d *memDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("unexpected query: %s", sql)
}

func (d *memDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return errRow{fmt.Errorf("unexpected query: %s", sql)}
}

func (d *memDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, fmt.Errorf("unexpected exec: %s", sql)
}

// memTx implements only what placement touches; anything else panics through
// the embedded nil interface.
type memTx struct {
	pgx.Tx
	s *memStore
}

func (t *memTx) Commit(ctx context.Context) error   { return nil }
func (t *memTx) Rollback(ctx context.Context) error { return nil }

func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	switch {
	case strings.Contains(sql, "SELECT name, is_set"):
		name, ok := t.s.names[args[0].(int64)]
		if !ok {
			return errRow{pgx.ErrNoRows}
		}
		return valueRow{vals: []any{name, false}}
	case strings.Contains(sql, "INSERT INTO orders"):
		t.s.lastOrder++
		return valueRow{vals: []any{t.s.lastOrder, time.Now()}}
	}
	return errRow{fmt.Errorf("unexpected query: %s", sql)}
}

func (t *memTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if !strings.Contains(sql, "quantity = quantity - $1") {
		return pgconn.CommandTag{}, fmt.Errorf("unexpected exec: %s", sql)
	}
	qty, id := args[0].(int), args[1].(int64)
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if have := t.s.stock[id]; have >= qty {
		t.s.stock[id] = have - qty
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	return pgconn.NewCommandTag("UPDATE 0"), nil
}

type valueRow struct{ vals []any }

func (r valueRow) Scan(dest ...any) error {
	for i, d := range dest {
		switch d := d.(type) {
		case *string:
			*d = r.vals[i].(string)
		case *bool:
			*d = r.vals[i].(bool)
		case *int64:
			*d = r.vals[i].(int64)
		case *time.Time:
			*d = r.vals[i].(time.Time)
		default:
			return fmt.Errorf("scan dest %T not supported", d)
		}
	}
	return nil
}

type errRow struct{ err error }

func (r errRow) Scan(dest ...any) error { return r.err }

// Forty buyers race for ten units, two per order. Exactly five orders can be
// filled; the rest must see an insufficient-stock rejection and the stock must
// land on zero, never below.
func TestPlace_ConcurrentBuyers_NeverOversell(t *testing.T) {
	const (
		productID = int64(5)
		start     = 10
		perOrder  = 2
		buyers    = 40
	)
	store := &memStore{
		stock: map[int64]int{productID: start},
		names: map[int64]string{productID: "Day Cream"},
	}
	repo := &Repo{DB: &memDB{s: store}}

	var placed, rejected int64
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Place(context.Background(), validInput())
			switch {
			case err == nil:
				atomic.AddInt64(&placed, 1)
			case errors.As(err, new(*InsufficientStockError)):
				atomic.AddInt64(&rejected, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, start/perOrder, placed)
	assert.EqualValues(t, buyers-start/perOrder, rejected)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.GreaterOrEqual(t, store.stock[productID], 0)
	require.Equal(t, start, int(placed)*perOrder+store.stock[productID])
}
