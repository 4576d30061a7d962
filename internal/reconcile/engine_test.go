package reconcile

import (
	"context"
	"testing"

	"github.com/agirodo/cadastro/internal/audit"
	"github.com/agirodo/cadastro/internal/fault"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockEngine(t *testing.T) (*Engine, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return New(mock, audit.New(mock)), mock
}

func expectAuditEntry(mock pgxmock.PgxPoolIface) {
	mock.ExpectExec(`INSERT INTO log_entries`).
		WithArgs(audit.LevelInfo, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

func TestStageBatch(t *testing.T) {
	eng, mock := newMockEngine(t)

	payload := `{"customers":[
			{"id":1,"name":"Ana","email":"a@x.com"},
			{"id":1,"name":"Ana dup","email":"dup@x.com"}],
		"orders":[{"id":10,"customer_id":1,"order_date":"2026-03-01"}]}`

	mock.ExpectQuery(`SELECT payload, status FROM raw_imports WHERE id`).
		WithArgs(7).
		WillReturnRows(pgxmock.NewRows([]string{"payload", "status"}).
			AddRow([]byte(payload), StatusNew))

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM staged_customers WHERE batch_id`).
		WithArgs(7).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM staged_orders WHERE batch_id`).
		WithArgs(7).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO staged_customers`).
		WithArgs(7, 1, "Ana", "a@x.com", (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	// duplicate id inside the same document hits the staging PK
	mock.ExpectExec(`INSERT INTO staged_customers`).
		WithArgs(7, 1, "Ana dup", "dup@x.com", (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectExec(`INSERT INTO staged_orders`).
		WithArgs(7, 10, 1, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE raw_imports SET status`).
		WithArgs(StatusInReview, 7).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	expectAuditEntry(mock)

	res, err := eng.StageBatch(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, StageResult{Customers: 1, Orders: 1}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStageBatch_RerunReplacesPriorStaging(t *testing.T) {
	eng, mock := newMockEngine(t)

	payload := `{"customers":[{"id":1,"name":"Ana","email":"a@x.com"}]}`
	for _, status := range []string{StatusNew, StatusInReview} {
		mock.ExpectQuery(`SELECT payload, status FROM raw_imports WHERE id`).
			WithArgs(7).
			WillReturnRows(pgxmock.NewRows([]string{"payload", "status"}).
				AddRow([]byte(payload), status))
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM staged_customers WHERE batch_id`).
			WithArgs(7).WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectExec(`DELETE FROM staged_orders WHERE batch_id`).
			WithArgs(7).WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mock.ExpectExec(`INSERT INTO staged_customers`).
			WithArgs(7, 1, "Ana", "a@x.com", (*string)(nil)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(`UPDATE raw_imports SET status`).
			WithArgs(StatusInReview, 7).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()
		expectAuditEntry(mock)
	}

	first, err := eng.StageBatch(context.Background(), 7)
	require.NoError(t, err)
	second, err := eng.StageBatch(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStageBatch_EmptyDocument(t *testing.T) {
	eng, mock := newMockEngine(t)

	mock.ExpectQuery(`SELECT payload, status FROM raw_imports WHERE id`).
		WithArgs(3).
		WillReturnRows(pgxmock.NewRows([]string{"payload", "status"}).
			AddRow([]byte(`{"items":[1,2,3]}`), StatusNew))

	_, err := eng.StageBatch(context.Background(), 3)
	require.Error(t, err)
	assert.Equal(t, fault.KindStructural, fault.KindOf(err))
	// no transaction was opened, nothing was mutated
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStageBatch_MalformedEntities(t *testing.T) {
	eng, mock := newMockEngine(t)

	mock.ExpectQuery(`SELECT payload, status FROM raw_imports WHERE id`).
		WithArgs(9).
		WillReturnRows(pgxmock.NewRows([]string{"payload", "status"}).
			AddRow([]byte(`{"customers":[{"id":"not-a-number","name":"Ana","email":"a@x.com"}]}`), StatusNew))

	_, err := eng.StageBatch(context.Background(), 9)
	require.Error(t, err)
	assert.Equal(t, fault.KindStructural, fault.KindOf(err))
	// the bad element must not reach staging as a zero-value row
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStageBatch_AlreadyPromoted(t *testing.T) {
	eng, mock := newMockEngine(t)

	mock.ExpectQuery(`SELECT payload, status FROM raw_imports WHERE id`).
		WithArgs(4).
		WillReturnRows(pgxmock.NewRows([]string{"payload", "status"}).
			AddRow([]byte(`{"customers":[]}`), StatusDone))

	_, err := eng.StageBatch(context.Background(), 4)
	assert.Equal(t, fault.KindInvalidState, fault.KindOf(err))
}

func TestStageBatch_MissingImport(t *testing.T) {
	eng, mock := newMockEngine(t)

	mock.ExpectQuery(`SELECT payload, status FROM raw_imports WHERE id`).
		WithArgs(99).
		WillReturnRows(pgxmock.NewRows([]string{"payload", "status"}))

	_, err := eng.StageBatch(context.Background(), 99)
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
}

func expectPromotion(mock pgxmock.PgxPoolIface, batchID, customers, orders int) {
	mock.ExpectQuery(`SELECT \(SELECT COUNT\(\*\) FROM staged_customers`).
		WithArgs(batchID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO customers`).
		WithArgs(batchID).
		WillReturnResult(pgxmock.NewResult("INSERT", int64(customers)))
	// the orders insert must keep its join against promoted customers,
	// otherwise orphan rows would slip into the live table
	mock.ExpectExec(`(?s)INSERT INTO orders.*JOIN customers c ON s\.customer_id = c\.id`).
		WithArgs(batchID).
		WillReturnResult(pgxmock.NewResult("INSERT", int64(orders)))
	mock.ExpectExec(`DELETE FROM staged_customers WHERE batch_id`).
		WithArgs(batchID).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM staged_orders WHERE batch_id`).
		WithArgs(batchID).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`UPDATE raw_imports SET status`).
		WithArgs(StatusDone, batchID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`SELECT setval\(pg_get_serial_sequence\('customers'`).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec(`SELECT setval\(pg_get_serial_sequence\('orders'`).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectCommit()
	expectAuditEntry(mock)
}

func TestPromoteBatch(t *testing.T) {
	eng, mock := newMockEngine(t)
	expectPromotion(mock, 7, 1, 1)

	res, err := eng.PromoteBatch(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, PromoteResult{Customers: 1, Orders: 1}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoteBatch_AlreadyPromotedIdsInsertNothing(t *testing.T) {
	eng, mock := newMockEngine(t)
	// every staged id already exists in the record tables
	expectPromotion(mock, 7, 0, 0)

	res, err := eng.PromoteBatch(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, PromoteResult{}, res)
}

func TestPromoteBatch_OrphanOrdersExcluded(t *testing.T) {
	eng, mock := newMockEngine(t)
	// a staged order referencing an unknown customer is filtered out by
	// the join and only its customer-backed siblings are promoted
	expectPromotion(mock, 7, 1, 0)

	res, err := eng.PromoteBatch(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, PromoteResult{Customers: 1, Orders: 0}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoteBatch_NoStagedRows(t *testing.T) {
	eng, mock := newMockEngine(t)

	mock.ExpectQuery(`SELECT \(SELECT COUNT\(\*\) FROM staged_customers`).
		WithArgs(8).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	_, err := eng.PromoteBatch(context.Background(), 8)
	require.Error(t, err)
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
}

func TestPendingBatches(t *testing.T) {
	eng, mock := newMockEngine(t)

	mock.ExpectQuery(`SELECT batch_id, SUM\(customers\), SUM\(orders\)`).
		WillReturnRows(pgxmock.NewRows([]string{"batch_id", "customers", "orders"}).
			AddRow(3, 2, 5).
			AddRow(4, 1, 0))

	batches, err := eng.PendingBatches(context.Background())
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, Batch{ID: 3, CustomerCount: 2, OrderCount: 5}, batches[0])
}

func TestProcessedImports(t *testing.T) {
	eng, mock := newMockEngine(t)

	mock.ExpectQuery(`SELECT id, payload FROM raw_imports WHERE status`).
		WithArgs(StatusDone).
		WillReturnRows(pgxmock.NewRows([]string{"id", "payload"}).
			AddRow(1, []byte(`{"customers":[{"id":1}],"orders":[{"id":10},{"id":11}]}`)))

	history, err := eng.ProcessedImports(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, ProcessedImport{ID: 1, Customers: 1, Orders: 2}, history[0])
}
