package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agirodo/cadastro/internal/audit"
	"github.com/agirodo/cadastro/internal/config"
	"github.com/agirodo/cadastro/internal/export"
	"github.com/agirodo/cadastro/internal/ingest"
	"github.com/agirodo/cadastro/internal/record"
	"github.com/agirodo/cadastro/internal/reconcile"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

// OpTimeout bounds a single menu action, interactive confirmation included.
var OpTimeout = 5 * time.Minute

// actions binds the menu tree to the pipeline operations.
type actions struct {
	records   *record.Store
	engine    *reconcile.Engine
	adapter   *ingest.Adapter
	exporter  *export.Writer
	publisher *export.Publisher
	aud       *audit.Logger
	cfg       *config.Config
}

func run(fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), OpTimeout)
		defer cancel()

		out, err := fn(ctx)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return DoneMsg(out)
	}
}

func parseID(label, s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", label, s)
	}
	return id, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func parseAmount(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("amount must be a number, got %q", s)
	}
	return &d, nil
}

/* ----------------------------------------
	CUSTOMERS
---------------------------------------- */

func (a *actions) listCustomers() tea.Cmd {
	return run(func(ctx context.Context) (string, error) {
		customers, err := a.records.ListCustomers(ctx)
		if err != nil {
			return "", err
		}
		return formatCustomers(customers), nil
	})
}

func (a *actions) searchCustomersPrompt() *PromptSpec {
	return &PromptSpec{
		Title:  "Search Customers",
		Fields: []Field{{Label: "Name contains", Placeholder: "ana"}},
		Submit: func(values []string) tea.Cmd {
			term := strings.TrimSpace(values[0])
			return run(func(ctx context.Context) (string, error) {
				customers, err := a.records.SearchCustomersByName(ctx, term)
				if err != nil {
					return "", err
				}
				return formatCustomers(customers), nil
			})
		},
	}
}

func (a *actions) createCustomerPrompt() *PromptSpec {
	return &PromptSpec{
		Title: "Add Customer",
		Fields: []Field{
			{Label: "Name"},
			{Label: "Email"},
			{Label: "Phone (optional)"},
		},
		Submit: func(values []string) tea.Cmd {
			name, email, phone := strings.TrimSpace(values[0]), strings.TrimSpace(values[1]), optional(values[2])
			return run(func(ctx context.Context) (string, error) {
				id, err := a.records.CreateCustomer(ctx, name, email, phone)
				if err != nil {
					return "", err
				}
				a.aud.Logf(ctx, audit.LevelInfo, "customer %d (%s) created", id, name)
				return fmt.Sprintf("Customer %d created.", id), nil
			})
		},
	}
}

func (a *actions) updateCustomerPrompt() *PromptSpec {
	return &PromptSpec{
		Title: "Edit Customer",
		Fields: []Field{
			{Label: "Customer id"},
			{Label: "New name"},
			{Label: "New email"},
			{Label: "New phone (optional)"},
		},
		Submit: func(values []string) tea.Cmd {
			return run(func(ctx context.Context) (string, error) {
				id, err := parseID("customer id", values[0])
				if err != nil {
					return "", err
				}
				name, email, phone := strings.TrimSpace(values[1]), strings.TrimSpace(values[2]), optional(values[3])
				if err := a.records.UpdateCustomer(ctx, id, name, email, phone); err != nil {
					return "", err
				}
				a.aud.Logf(ctx, audit.LevelInfo, "customer %d updated", id)
				return fmt.Sprintf("Customer %d updated.", id), nil
			})
		},
	}
}

func (a *actions) deleteCustomerPrompt() *PromptSpec {
	return &PromptSpec{
		Title: "Delete Customer",
		Fields: []Field{
			{Label: "Customer id"},
			{Label: "Type the id again to confirm (orders cascade)"},
		},
		Submit: func(values []string) tea.Cmd {
			return run(func(ctx context.Context) (string, error) {
				id, err := parseID("customer id", values[0])
				if err != nil {
					return "", err
				}
				if strings.TrimSpace(values[1]) != strings.TrimSpace(values[0]) {
					return "Deletion aborted: confirmation did not match.", nil
				}
				if err := a.records.DeleteCustomer(ctx, id); err != nil {
					return "", err
				}
				a.aud.Logf(ctx, audit.LevelWarning, "customer %d deleted", id)
				return fmt.Sprintf("Customer %d and their orders deleted.", id), nil
			})
		},
	}
}

/* ----------------------------------------
	ORDERS
---------------------------------------- */

func (a *actions) listOrders() tea.Cmd {
	return run(func(ctx context.Context) (string, error) {
		orders, err := a.records.ListOrders(ctx)
		if err != nil {
			return "", err
		}
		return formatOrders(orders), nil
	})
}

func (a *actions) createOrderPrompt() *PromptSpec {
	return &PromptSpec{
		Title: "Add Order",
		Fields: []Field{
			{Label: "Customer id"},
			{Label: "Item (optional)"},
			{Label: "Amount (optional)", Placeholder: "149.90"},
		},
		Submit: func(values []string) tea.Cmd {
			return run(func(ctx context.Context) (string, error) {
				customerID, err := parseID("customer id", values[0])
				if err != nil {
					return "", err
				}
				amount, err := parseAmount(values[2])
				if err != nil {
					return "", err
				}
				id, err := a.records.CreateOrder(ctx, customerID, optional(values[1]), amount)
				if err != nil {
					return "", err
				}
				a.aud.Logf(ctx, audit.LevelInfo, "order %d created for customer %d", id, customerID)
				return fmt.Sprintf("Order %d created.", id), nil
			})
		},
	}
}

func (a *actions) updateOrderPrompt() *PromptSpec {
	return &PromptSpec{
		Title: "Edit Order",
		Fields: []Field{
			{Label: "Order id"},
			{Label: "New item (optional)"},
			{Label: "New amount (optional)"},
		},
		Submit: func(values []string) tea.Cmd {
			return run(func(ctx context.Context) (string, error) {
				id, err := parseID("order id", values[0])
				if err != nil {
					return "", err
				}
				amount, err := parseAmount(values[2])
				if err != nil {
					return "", err
				}
				if err := a.records.UpdateOrder(ctx, id, optional(values[1]), amount); err != nil {
					return "", err
				}
				a.aud.Logf(ctx, audit.LevelInfo, "order %d updated", id)
				return fmt.Sprintf("Order %d updated.", id), nil
			})
		},
	}
}

func (a *actions) deleteOrderPrompt() *PromptSpec {
	return &PromptSpec{
		Title: "Delete Order",
		Fields: []Field{
			{Label: "Order id"},
			{Label: "Type the id again to confirm"},
		},
		Submit: func(values []string) tea.Cmd {
			return run(func(ctx context.Context) (string, error) {
				id, err := parseID("order id", values[0])
				if err != nil {
					return "", err
				}
				if strings.TrimSpace(values[1]) != strings.TrimSpace(values[0]) {
					return "Deletion aborted: confirmation did not match.", nil
				}
				if err := a.records.DeleteOrder(ctx, id); err != nil {
					return "", err
				}
				a.aud.Logf(ctx, audit.LevelWarning, "order %d deleted", id)
				return fmt.Sprintf("Order %d deleted.", id), nil
			})
		},
	}
}

/* ----------------------------------------
	IMPORT / EXPORT
---------------------------------------- */

func (a *actions) exportData() tea.Cmd {
	return run(func(ctx context.Context) (string, error) {
		jsonPath, zipPath, err := a.exporter.Export(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Data exported to %s and compressed into %s.", jsonPath, zipPath), nil
	})
}

func (a *actions) importWebPrompt() *PromptSpec {
	return &PromptSpec{
		Title:  "Import from Web",
		Fields: []Field{{Label: "URL", Placeholder: "api.jsonbin.io/v3/b/..."}},
		Submit: func(values []string) tea.Cmd {
			url := values[0]
			return run(func(ctx context.Context) (string, error) {
				id, err := a.adapter.FromURL(ctx, url)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Document queued as import %d (status NEW).", id), nil
			})
		},
	}
}

func (a *actions) importFilePrompt() *PromptSpec {
	return &PromptSpec{
		Title:  "Import from Local File",
		Fields: []Field{{Label: "Path (leave empty to list *.json here)"}},
		Submit: func(values []string) tea.Cmd {
			path := strings.TrimSpace(values[0])
			return run(func(ctx context.Context) (string, error) {
				if path == "" {
					files, err := ingest.ListLocalJSON(".")
					if err != nil {
						return "", err
					}
					if len(files) == 0 {
						return "No .json files in the current directory.", nil
					}
					return "JSON files here:\n  " + strings.Join(files, "\n  "), nil
				}
				id, err := a.adapter.FromFile(ctx, path)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("File queued as import %d (status NEW).", id), nil
			})
		},
	}
}

func (a *actions) stageBatchPrompt() *PromptSpec {
	return &PromptSpec{
		Title:  "Stage Import",
		Fields: []Field{{Label: "Import id (leave empty to list the queue)"}},
		Submit: func(values []string) tea.Cmd {
			raw := strings.TrimSpace(values[0])
			return run(func(ctx context.Context) (string, error) {
				if raw == "" {
					imports, err := a.engine.ListImports(ctx)
					if err != nil {
						return "", err
					}
					return formatImports(imports), nil
				}
				id, err := parseID("import id", raw)
				if err != nil {
					return "", err
				}
				res, err := a.engine.StageBatch(ctx, id)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Batch %d staged for review: %d customers, %d orders.",
					id, res.Customers, res.Orders), nil
			})
		},
	}
}

func (a *actions) reviewBatchPrompt() *PromptSpec {
	return &PromptSpec{
		Title:  "Review Staged Batch",
		Fields: []Field{{Label: "Batch id"}},
		Submit: func(values []string) tea.Cmd {
			return run(func(ctx context.Context) (string, error) {
				id, err := parseID("batch id", values[0])
				if err != nil {
					return "", err
				}
				cols, err := a.engine.StagedBatch(ctx, id)
				if err != nil {
					return "", err
				}
				if cols.Empty() {
					return fmt.Sprintf("Batch %d has no staged rows.", id), nil
				}
				return formatStaged(id, cols), nil
			})
		},
	}
}

func (a *actions) pendingBatches() tea.Cmd {
	return run(func(ctx context.Context) (string, error) {
		batches, err := a.engine.PendingBatches(ctx)
		if err != nil {
			return "", err
		}
		return formatBatches(batches), nil
	})
}

func (a *actions) promoteBatchPrompt() *PromptSpec {
	return &PromptSpec{
		Title: "Promote Staged Batch",
		Fields: []Field{
			{Label: "Batch id"},
			{Label: "Type the batch id again to confirm promotion"},
		},
		Submit: func(values []string) tea.Cmd {
			return run(func(ctx context.Context) (string, error) {
				id, err := parseID("batch id", values[0])
				if err != nil {
					return "", err
				}
				if strings.TrimSpace(values[1]) != strings.TrimSpace(values[0]) {
					return "Promotion aborted: confirmation did not match.", nil
				}
				res, err := a.engine.PromoteBatch(ctx, id)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Batch %d promoted: %d customers and %d orders inserted.",
					id, res.Customers, res.Orders), nil
			})
		},
	}
}

func (a *actions) publishData() tea.Cmd {
	return run(func(ctx context.Context) (string, error) {
		url, err := a.publisher.Publish(ctx, a.cfg.Publish.APIKey)
		if err != nil {
			return "", err
		}
		return "Data published. Public URL: " + url, nil
	})
}

func (a *actions) viewLogs() tea.Cmd {
	return run(func(ctx context.Context) (string, error) {
		entries, err := a.aud.Recent(ctx, 50)
		if err != nil {
			return "", err
		}
		return formatLogs(entries), nil
	})
}

func (a *actions) history() tea.Cmd {
	return run(func(ctx context.Context) (string, error) {
		history, err := a.engine.ProcessedImports(ctx)
		if err != nil {
			return "", err
		}
		return formatHistory(history), nil
	})
}

func (a *actions) about() tea.Cmd {
	return func() tea.Msg {
		return DoneMsg("Cadastro manages customers and orders on PostgreSQL,\n" +
			"with staged JSON imports, reviewed and promoted batch by batch,\n" +
			"plus JSON/ZIP export and web publishing.")
	}
}
