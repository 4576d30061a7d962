// Package export serialises the record tables into portable artifacts:
// a timestamped JSON file compressed into a ZIP, or a document published
// to a remote bin store.
package export

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agirodo/cadastro/internal/audit"
	"github.com/agirodo/cadastro/internal/fault"
	"github.com/agirodo/cadastro/internal/record"
	"github.com/shopspring/decimal"
)

// ConfirmFunc shows the operator a summary of the pending export and
// reports whether it should go ahead.
type ConfirmFunc func(summary string) bool

// Document is the exported shape, matching the ingested one so an export
// can be re-imported as-is.
type Document struct {
	Customers []record.Customer `json:"customers"`
	Orders    []orderDoc        `json:"orders"`
}

type orderDoc struct {
	ID         int              `json:"id"`
	CustomerID int              `json:"customer_id"`
	OrderDate  string           `json:"order_date"`
	Item       *string          `json:"item"`
	Amount     *decimal.Decimal `json:"amount"`
}

// Writer builds export documents from a record store snapshot.
type Writer struct {
	records *record.Store
	aud     *audit.Logger
	dir     string
	confirm ConfirmFunc
}

func New(records *record.Store, aud *audit.Logger, dir string) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{records: records, aud: aud, dir: dir}
}

// SetConfirm replaces the confirmation hook. The terminal front end wires
// its preview screen in here after the program is constructed.
func (w *Writer) SetConfirm(confirm ConfirmFunc) {
	w.confirm = confirm
}

// Snapshot reads the current tables into an export document.
func (w *Writer) Snapshot(ctx context.Context) (*Document, error) {
	customers, orders, err := w.records.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	doc := &Document{Customers: customers, Orders: []orderDoc{}}
	if doc.Customers == nil {
		doc.Customers = []record.Customer{}
	}
	for _, o := range orders {
		doc.Orders = append(doc.Orders, orderDoc{
			ID:         o.ID,
			CustomerID: o.CustomerID,
			OrderDate:  o.OrderDate.Format("2006-01-02"),
			Item:       o.Item,
			Amount:     o.Amount,
		})
	}
	return doc, nil
}

// Export writes the snapshot to export_YYYYMMDD_HHMMSS.json and compresses
// it into a ZIP of the same base name. Both paths are returned. A declined
// confirmation writes nothing and returns fault.ErrCancelled.
func (w *Writer) Export(ctx context.Context) (jsonPath, zipPath string, err error) {
	doc, err := w.Snapshot(ctx)
	if err != nil {
		return "", "", err
	}

	if w.confirm != nil {
		summary := fmt.Sprintf("Export %d customers and %d orders to disk?",
			len(doc.Customers), len(doc.Orders))
		if !w.confirm(summary) {
			w.aud.Log(ctx, audit.LevelInfo, "export cancelled by operator")
			return "", "", fault.ErrCancelled
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encode export: %w", err)
	}

	// timestamped names so repeated exports never clobber each other
	base := "export_" + time.Now().Format("20060102_150405")
	jsonPath = filepath.Join(w.dir, base+".json")
	zipPath = filepath.Join(w.dir, base+".zip")

	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write %s: %w", jsonPath, err)
	}
	if err := writeZip(zipPath, base+".json", data); err != nil {
		return "", "", err
	}

	w.aud.Logf(ctx, audit.LevelInfo,
		"exported %d customers and %d orders to %s",
		len(doc.Customers), len(doc.Orders), zipPath)
	return jsonPath, zipPath, nil
}

func writeZip(path, entryName string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	entry, err := zw.Create(entryName)
	if err != nil {
		return fmt.Errorf("zip entry: %w", err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("zip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish %s: %w", path, err)
	}
	return f.Close()
}
