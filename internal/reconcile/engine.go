package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/agirodo/cadastro/internal/audit"
	"github.com/agirodo/cadastro/internal/fault"
	"github.com/agirodo/cadastro/internal/store"
	"github.com/jackc/pgx/v5"
)

// Raw import statuses.
const (
	StatusNew      = "NEW"
	StatusInReview = "IN_REVIEW"
	StatusDone     = "DONE"
)

// Engine moves raw imports through staging and into the record tables.
type Engine struct {
	db  store.DB
	aud *audit.Logger
}

func New(db store.DB, aud *audit.Logger) *Engine {
	return &Engine{db: db, aud: aud}
}

// Import is one raw-import queue entry.
type Import struct {
	ID     int
	Status string
}

// Batch summarises the staged rows sharing one raw-import id.
type Batch struct {
	ID            int
	CustomerCount int
	OrderCount    int
}

// StageResult reports how many candidates survived staging dedup.
type StageResult struct {
	Customers int
	Orders    int
}

// PromoteResult reports how many rows promotion actually inserted.
type PromoteResult struct {
	Customers int
	Orders    int
}

// StageBatch extracts the entity collections from a NEW raw import and
// loads them into the staging tables, moving the import to IN_REVIEW.
// Re-running replaces any prior staging for the batch. Duplicate ids within
// the document are first-occurrence-wins. The payload itself is never
// touched, so staging is always reproducible from it.
func (e *Engine) StageBatch(ctx context.Context, batchID int) (StageResult, error) {
	var (
		payload []byte
		status  string
	)
	err := e.db.QueryRow(ctx,
		`SELECT payload, status FROM raw_imports WHERE id = $1`, batchID).
		Scan(&payload, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return StageResult{}, fault.New(fault.KindNotFound, "import %d not found", batchID)
	}
	if err != nil {
		return StageResult{}, fmt.Errorf("load import %d: %w", batchID, err)
	}
	// IN_REVIEW is allowed so a batch can be re-staged from its unchanged
	// payload; a promoted import never goes back into staging.
	if status != StatusNew && status != StatusInReview {
		return StageResult{}, fault.New(fault.KindInvalidState,
			"import %d is %s, only NEW or IN_REVIEW imports can be staged", batchID, status)
	}

	cols, found, err := LocateEntityCollections(payload)
	if err != nil {
		return StageResult{}, fault.Wrap(fault.KindStructural, err,
			"import %d has malformed entities", batchID)
	}
	if !found || cols.Empty() {
		return StageResult{}, fault.New(fault.KindStructural,
			"import %d has no customers or orders collection", batchID)
	}

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return StageResult{}, fmt.Errorf("begin staging: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"staged_customers", "staged_orders"} {
		if _, err := tx.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE batch_id = $1`, table), batchID); err != nil {
			return StageResult{}, fmt.Errorf("clear prior staging: %w", err)
		}
	}

	var res StageResult
	for _, c := range cols.Customers {
		tag, err := tx.Exec(ctx, `
			INSERT INTO staged_customers (batch_id, id, name, email, phone)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (batch_id, id) DO NOTHING`,
			batchID, c.ID, c.Name, c.Email, c.Phone)
		if err != nil {
			return StageResult{}, fmt.Errorf("stage customer %d: %w", c.ID, err)
		}
		res.Customers += int(tag.RowsAffected())
	}
	for _, o := range cols.Orders {
		tag, err := tx.Exec(ctx, `
			INSERT INTO staged_orders (batch_id, id, customer_id, order_date, item, amount)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (batch_id, id) DO NOTHING`,
			batchID, o.ID, o.CustomerID, o.OrderDate, o.Item, o.Amount)
		if err != nil {
			return StageResult{}, fmt.Errorf("stage order %d: %w", o.ID, err)
		}
		res.Orders += int(tag.RowsAffected())
	}

	if _, err := tx.Exec(ctx,
		`UPDATE raw_imports SET status = $1 WHERE id = $2`, StatusInReview, batchID); err != nil {
		return StageResult{}, fmt.Errorf("mark import in review: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return StageResult{}, fmt.Errorf("commit staging: %w", err)
	}

	e.aud.Logf(ctx, audit.LevelInfo,
		"batch %d staged: %d customers, %d orders", batchID, res.Customers, res.Orders)
	return res, nil
}

// PromoteBatch merges a staged batch into the record tables. Customers go
// first, insert-or-ignore on id, never an update. Orders are join-filtered
// against the customer table after that first step, so an order whose
// customer exists nowhere is silently excluded. Staged rows are cleared,
// the import is marked DONE, and the id sequences are resynced so future
// store-assigned ids cannot collide with promoted external ids.
func (e *Engine) PromoteBatch(ctx context.Context, batchID int) (PromoteResult, error) {
	var staged int
	err := e.db.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM staged_customers WHERE batch_id = $1)
		     + (SELECT COUNT(*) FROM staged_orders WHERE batch_id = $1)`, batchID).
		Scan(&staged)
	if err != nil {
		return PromoteResult{}, fmt.Errorf("count staged rows: %w", err)
	}
	if staged == 0 {
		return PromoteResult{}, fault.New(fault.KindNotFound,
			"no staged rows for batch %d", batchID)
	}

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return PromoteResult{}, fmt.Errorf("begin promotion: %w", err)
	}
	defer tx.Rollback(ctx)

	var res PromoteResult
	tag, err := tx.Exec(ctx, `
		INSERT INTO customers (id, name, email, phone)
		SELECT id, name, email, phone FROM staged_customers WHERE batch_id = $1
		ON CONFLICT (id) DO NOTHING`, batchID)
	if err != nil {
		return PromoteResult{}, fmt.Errorf("promote customers: %w", err)
	}
	res.Customers = int(tag.RowsAffected())

	tag, err = tx.Exec(ctx, `
		INSERT INTO orders (id, customer_id, order_date, item, amount)
		SELECT s.id, s.customer_id, s.order_date, s.item, s.amount
		FROM staged_orders s
		JOIN customers c ON s.customer_id = c.id
		WHERE s.batch_id = $1
		ON CONFLICT (id) DO NOTHING`, batchID)
	if err != nil {
		return PromoteResult{}, fmt.Errorf("promote orders: %w", err)
	}
	res.Orders = int(tag.RowsAffected())

	for _, table := range []string{"staged_customers", "staged_orders"} {
		if _, err := tx.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE batch_id = $1`, table), batchID); err != nil {
			return PromoteResult{}, fmt.Errorf("clear staged rows: %w", err)
		}
	}
	if _, err := tx.Exec(ctx,
		`UPDATE raw_imports SET status = $1 WHERE id = $2`, StatusDone, batchID); err != nil {
		return PromoteResult{}, fmt.Errorf("mark import done: %w", err)
	}

	// Promoted rows carry externally supplied ids, which leaves the serial
	// sequences behind the data.
	for _, table := range []string{"customers", "orders"} {
		if _, err := tx.Exec(ctx, fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'),
			        COALESCE((SELECT MAX(id) FROM %[1]s), 1))`, table)); err != nil {
			return PromoteResult{}, fmt.Errorf("resync %s id sequence: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return PromoteResult{}, fmt.Errorf("commit promotion: %w", err)
	}

	e.aud.Logf(ctx, audit.LevelInfo,
		"batch %d promoted: %d customers, %d orders", batchID, res.Customers, res.Orders)
	return res, nil
}

// ListImports returns every raw-import queue entry, oldest first.
func (e *Engine) ListImports(ctx context.Context) ([]Import, error) {
	rows, err := e.db.Query(ctx, `SELECT id, status FROM raw_imports ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	var imports []Import
	for rows.Next() {
		var imp Import
		if err := rows.Scan(&imp.ID, &imp.Status); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		imports = append(imports, imp)
	}
	return imports, rows.Err()
}

// PendingBatches lists the batches currently sitting in staging with their
// row counts, for the operator's promotion menu.
func (e *Engine) PendingBatches(ctx context.Context) ([]Batch, error) {
	rows, err := e.db.Query(ctx, `
		SELECT batch_id, SUM(customers), SUM(orders) FROM (
			SELECT batch_id, COUNT(*) AS customers, 0 AS orders
			FROM staged_customers GROUP BY batch_id
			UNION ALL
			SELECT batch_id, 0, COUNT(*)
			FROM staged_orders GROUP BY batch_id
		) t GROUP BY batch_id ORDER BY batch_id`)
	if err != nil {
		return nil, fmt.Errorf("list pending batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.CustomerCount, &b.OrderCount); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// StagedBatch returns the staged rows of one batch for operator review.
func (e *Engine) StagedBatch(ctx context.Context, batchID int) (Collections, error) {
	var cols Collections

	rows, err := e.db.Query(ctx, `
		SELECT id, name, email, phone FROM staged_customers
		WHERE batch_id = $1 ORDER BY id`, batchID)
	if err != nil {
		return cols, fmt.Errorf("staged customers: %w", err)
	}
	for rows.Next() {
		var c CandidateCustomer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone); err != nil {
			rows.Close()
			return cols, fmt.Errorf("scan staged customer: %w", err)
		}
		cols.Customers = append(cols.Customers, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return cols, err
	}

	rows, err = e.db.Query(ctx, `
		SELECT id, customer_id, order_date, item, amount FROM staged_orders
		WHERE batch_id = $1 ORDER BY id`, batchID)
	if err != nil {
		return cols, fmt.Errorf("staged orders: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var o CandidateOrder
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.OrderDate, &o.Item, &o.Amount); err != nil {
			return cols, fmt.Errorf("scan staged order: %w", err)
		}
		cols.Orders = append(cols.Orders, o)
	}
	return cols, rows.Err()
}

// ProcessedImport is a DONE queue entry with the collection sizes its
// payload declared, shown in the import history view.
type ProcessedImport struct {
	ID        int
	Customers int
	Orders    int
}

// ProcessedImports returns the promoted imports, oldest first.
func (e *Engine) ProcessedImports(ctx context.Context) ([]ProcessedImport, error) {
	rows, err := e.db.Query(ctx,
		`SELECT id, payload FROM raw_imports WHERE status = $1 ORDER BY id`, StatusDone)
	if err != nil {
		return nil, fmt.Errorf("list processed imports: %w", err)
	}
	defer rows.Close()

	var history []ProcessedImport
	for rows.Next() {
		var (
			id      int
			payload json.RawMessage
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan processed import: %w", err)
		}
		entry := ProcessedImport{ID: id}
		if cols, ok, err := LocateEntityCollections(payload); err == nil && ok {
			entry.Customers = len(cols.Customers)
			entry.Orders = len(cols.Orders)
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}
