package export

import (
	"archive/zip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/agirodo/cadastro/internal/audit"
	"github.com/agirodo/cadastro/internal/fault"
	"github.com/agirodo/cadastro/internal/record"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectSnapshot(mock pgxmock.PgxPoolIface) {
	phone := "11 1111"
	item := "Teclado"
	amount := decimal.RequireFromString("149.90")
	mock.ExpectQuery(`SELECT id, name, email, phone FROM customers ORDER BY id`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "phone"}).
			AddRow(1, "Ana", "a@x.com", &phone))
	mock.ExpectQuery(`SELECT o.id, c.id, c.name, o.order_date, o.item, o.amount\s+FROM orders o`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "customer_id", "name", "order_date", "item", "amount"}).
			AddRow(10, 1, "Ana", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), &item, &amount))
}

func newMockWriter(t *testing.T, dir string) (*Writer, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return New(record.New(mock), audit.New(mock), dir), mock
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	writer, mock := newMockWriter(t, dir)
	expectSnapshot(mock)
	mock.ExpectExec(`INSERT INTO log_entries`).
		WithArgs(audit.LevelInfo, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	jsonPath, zipPath, err := writer.Export(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	customers := doc["customers"].([]any)
	orders := doc["orders"].([]any)
	require.Len(t, customers, 1)
	require.Len(t, orders, 1)
	assert.Equal(t, "Ana", customers[0].(map[string]any)["name"])
	assert.Equal(t, "2026-03-01", orders[0].(map[string]any)["order_date"])

	// zip holds one entry with the same bytes
	zr, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	entry, err := zr.File[0].Open()
	require.NoError(t, err)
	defer entry.Close()
	unzipped, err := io.ReadAll(entry)
	require.NoError(t, err)
	assert.Equal(t, data, unzipped)
}

func TestExport_ConfirmShowsCounts(t *testing.T) {
	dir := t.TempDir()
	writer, mock := newMockWriter(t, dir)
	expectSnapshot(mock)
	mock.ExpectExec(`INSERT INTO log_entries`).
		WithArgs(audit.LevelInfo, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	var summary string
	writer.SetConfirm(func(s string) bool {
		summary = s
		return true
	})

	_, _, err := writer.Export(context.Background())
	require.NoError(t, err)
	assert.Contains(t, summary, "1 customers")
	assert.Contains(t, summary, "1 orders")
}

func TestExport_DeclinedWritesNothing(t *testing.T) {
	dir := t.TempDir()
	writer, mock := newMockWriter(t, dir)
	expectSnapshot(mock)
	mock.ExpectExec(`INSERT INTO log_entries`).
		WithArgs(audit.LevelInfo, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	writer.SetConfirm(func(string) bool { return false })

	_, _, err := writer.Export(context.Background())
	require.ErrorIs(t, err, fault.ErrCancelled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "declined export left artifacts on disk")
}

func TestPublish_MissingKeyAbortsBeforeNetwork(t *testing.T) {
	writer, mock := newMockWriter(t, t.TempDir())
	pub := NewPublisher(writer, audit.New(mock), nil)

	_, err := pub.Publish(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, fault.KindConfig, fault.KindOf(err))
	// no snapshot query was issued
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.Header.Get("X-Master-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"metadata":{"id":"abc123"}}`))
	}))
	defer srv.Close()

	writer, mock := newMockWriter(t, t.TempDir())
	expectSnapshot(mock)
	mock.ExpectExec(`INSERT INTO log_entries`).
		WithArgs(audit.LevelInfo, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	pub := NewPublisher(writer, audit.New(mock), srv.Client())
	pub.binURL = srv.URL

	url, err := pub.Publish(context.Background(), "secret-key")
	require.NoError(t, err)
	assert.Equal(t, "https://jsonbin.io/abc123", url)
}

func TestPublish_DeclinedSendsNothing(t *testing.T) {
	var posts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts++
	}))
	defer srv.Close()

	writer, mock := newMockWriter(t, t.TempDir())
	expectSnapshot(mock)
	mock.ExpectExec(`INSERT INTO log_entries`).
		WithArgs(audit.LevelInfo, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	pub := NewPublisher(writer, audit.New(mock), srv.Client())
	pub.binURL = srv.URL
	pub.SetConfirm(func(string) bool { return false })

	_, err := pub.Publish(context.Background(), "secret-key")
	require.ErrorIs(t, err, fault.ErrCancelled)
	assert.Zero(t, posts, "declined publish reached the network")
}

func TestPublish_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	writer, mock := newMockWriter(t, t.TempDir())
	expectSnapshot(mock)

	pub := NewPublisher(writer, audit.New(mock), srv.Client())
	pub.binURL = srv.URL

	_, err := pub.Publish(context.Background(), "bad-key")
	require.Error(t, err)
	assert.Equal(t, fault.KindTransport, fault.KindOf(err))
}
