package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func expectProductLookup(mock pgxmock.PgxPoolIface, id int64, name string, isSet bool) {
	mock.ExpectQuery(`SELECT name, is_set FROM products`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"name", "is_set"}).AddRow(name, isSet))
}

func expectDecrement(mock pgxmock.PgxPoolIface, id int64, qty int, affected int64) {
	mock.ExpectExec(`UPDATE products`).
		WithArgs(qty, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", affected))
}

func expectIncrement(mock pgxmock.PgxPoolIface, id int64, qty int, affected int64) {
	mock.ExpectExec(`UPDATE products`).
		WithArgs(qty, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", affected))
}

func TestPlace_Success(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	in := validInput() // one item: id 5, qty 2

	mock.ExpectBegin()
	expectProductLookup(mock, 5, "Day Cream", false)
	expectDecrement(mock, 5, 2, 1)
	mock.ExpectQuery(`INSERT INTO orders`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).
			AddRow(int64(42), time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))
	mock.ExpectCommit()

	o, err := repo.Place(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(42), o.ID)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, in.Items, o.Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlace_ValidationFailure_NoStoreAccess(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	in := validInput()
	in.Phone = ""

	_, err := repo.Place(context.Background(), in)
	assert.ErrorIs(t, err, ErrValidation)
	// no Begin, no queries
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlace_ProductNotFound_RollsBack(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	in := validInput()
	in.Items = append(in.Items, LineItem{ID: 6, Quantity: 1, Name: "Serum", Price: 59.90})

	mock.ExpectBegin()
	expectProductLookup(mock, 5, "Day Cream", false)
	expectDecrement(mock, 5, 2, 1)
	mock.ExpectQuery(`SELECT name, is_set FROM products`).
		WithArgs(int64(6)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Place(context.Background(), in)
	var notFound *ProductNotFoundError
	require.True(t, errors.As(err, &notFound), "got %v", err)
	assert.Equal(t, int64(6), notFound.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlace_InsufficientStock_RollsBack(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	in := validInput()

	mock.ExpectBegin()
	expectProductLookup(mock, 5, "Day Cream", false)
	expectDecrement(mock, 5, 2, 0) // conditional update misses
	mock.ExpectRollback()

	_, err := repo.Place(context.Background(), in)
	var stock *InsufficientStockError
	require.True(t, errors.As(err, &stock), "got %v", err)
	assert.Equal(t, "Day Cream", stock.Product)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlace_SetProduct_DualDecrement(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	in := validInput()
	in.Items = []LineItem{{ID: 7, Quantity: 3, Name: "Gift Set", Price: 89.90, Option: 9}}

	mock.ExpectBegin()
	expectProductLookup(mock, 7, "Gift Set", true)
	expectDecrement(mock, 7, 3, 1) // bundle
	expectDecrement(mock, 9, 3, 1) // chosen component
	mock.ExpectQuery(`INSERT INTO orders`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(43), time.Now()))
	mock.ExpectCommit()

	o, err := repo.Place(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(43), o.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlace_SetProduct_ComponentOutOfStock(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	in := validInput()
	in.Items = []LineItem{{ID: 7, Quantity: 3, Name: "Gift Set", Price: 89.90, Option: 9}}

	mock.ExpectBegin()
	expectProductLookup(mock, 7, "Gift Set", true)
	expectDecrement(mock, 7, 3, 1) // bundle succeeds
	expectDecrement(mock, 9, 3, 0) // component misses -> whole tx gone
	mock.ExpectRollback()

	_, err := repo.Place(context.Background(), in)
	var stock *InsufficientStockError
	require.True(t, errors.As(err, &stock), "got %v", err)
	assert.Equal(t, "Gift Set", stock.Product)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlace_SetProduct_MissingOption(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	in := validInput()
	in.Items = []LineItem{{ID: 7, Quantity: 1, Name: "Gift Set", Price: 89.90}}

	mock.ExpectBegin()
	expectProductLookup(mock, 7, "Gift Set", true)
	expectDecrement(mock, 7, 1, 1)
	mock.ExpectRollback()

	_, err := repo.Place(context.Background(), in)
	assert.ErrorIs(t, err, ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_Restocks_ThenDeletes(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	items := []byte(`[{"id":5,"quantity":2,"name":"Day Cream","price":39.9},
	                  {"id":7,"quantity":1,"name":"Gift Set","price":89.9,"option":9}]`)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status, order_items FROM orders`).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"status", "order_items"}).AddRow(StatusPending, items))
	expectIncrement(mock, 5, 2, 1) // plain product
	expectIncrement(mock, 9, 1, 1) // chosen component first
	expectIncrement(mock, 7, 1, 1) // then the bundle
	mock.ExpectExec(`DELETE FROM orders`).
		WithArgs(int64(42)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	restocked, err := repo.Cancel(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, restocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_ShippedOrder_SkipsRestock(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	items := []byte(`[{"id":5,"quantity":2,"name":"Day Cream","price":39.9}]`)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status, order_items FROM orders`).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"status", "order_items"}).AddRow(StatusShipped, items))
	mock.ExpectExec(`DELETE FROM orders`).
		WithArgs(int64(42)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	restocked, err := repo.Cancel(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, restocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_MissingOrder(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status, order_items FROM orders`).
		WithArgs(int64(999)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Cancel(context.Background(), 999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_RestockFailure_AbortsDelete(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	items := []byte(`[{"id":5,"quantity":2,"name":"Day Cream","price":39.9}]`)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status, order_items FROM orders`).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"status", "order_items"}).AddRow(StatusPending, items))
	expectIncrement(mock, 5, 2, 0) // product row vanished
	mock.ExpectRollback()

	_, err := repo.Cancel(context.Background(), 42)
	var notFound *ProductNotFoundError
	require.True(t, errors.As(err, &notFound), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_OK(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	mock.ExpectQuery(`SELECT status FROM orders`).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(StatusPending))
	mock.ExpectExec(`UPDATE orders SET status`).
		WithArgs(StatusShipped, int64(42)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), 42, StatusShipped))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_MissingOrder_LedgerUntouched(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	mock.ExpectQuery(`SELECT status FROM orders`).
		WithArgs(int64(999)).
		WillReturnError(pgx.ErrNoRows)

	err := repo.UpdateStatus(context.Background(), 999, StatusShipped)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	// no UPDATE was expected or issued
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_CancelledBetweenReadAndWrite(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	mock.ExpectQuery(`SELECT status FROM orders`).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(StatusPending))
	mock.ExpectExec(`UPDATE orders SET status`).
		WithArgs(StatusShipped, int64(42)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0)) // row already gone

	err := repo.UpdateStatus(context.Background(), 42, StatusShipped)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_NewestFirst(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}

	newer := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	older := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	items := []byte(`[{"id":5,"quantity":1,"name":"Day Cream","price":39.9}]`)

	cols := []string{"id", "first_name", "last_name", "phone", "address", "city", "note", "order_items", "status", "created_at"}
	mock.ExpectQuery(`SELECT id, first_name, last_name, phone, address, city, note, order_items, status, created_at`).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(int64(2), "Maria", "Petrova", "0888", "addr", "Sofia", "", items, StatusPending, newer).
			AddRow(int64(1), "Ivan", "Ivanov", "0899", "addr", "Plovdiv", "", items, StatusShipped, older))

	out, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0].ID)
	assert.Equal(t, int64(1), out[1].ID)
	assert.Equal(t, int64(5), out[0].Items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
