package app

import (
	"fmt"
	"strings"

	"github.com/agirodo/cadastro/internal/audit"
	"github.com/agirodo/cadastro/internal/record"
	"github.com/agirodo/cadastro/internal/reconcile"
)

// Fixed-width tables in the operator's terminal, nil fields shown as "-".

func dash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func formatCustomers(customers []record.Customer) string {
	if len(customers) == 0 {
		return "No customers found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-5s %-30s %-30s %s\n", "ID", "NAME", "EMAIL", "PHONE")
	for _, c := range customers {
		fmt.Fprintf(&b, "%-5d %-30s %-30s %s\n", c.ID, c.Name, c.Email, dash(c.Phone))
	}
	fmt.Fprintf(&b, "\n%d customer(s).", len(customers))
	return b.String()
}

func formatOrders(orders []record.Order) string {
	if len(orders) == 0 {
		return "No orders found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-5s %-25s %-12s %-20s %s\n", "ID", "CUSTOMER", "DATE", "ITEM", "AMOUNT")
	for _, o := range orders {
		amount := "-"
		if o.Amount != nil {
			amount = o.Amount.StringFixed(2)
		}
		fmt.Fprintf(&b, "%-5d %-25s %-12s %-20s %s\n",
			o.ID, o.CustomerName, o.OrderDate.Format("2006-01-02"), dash(o.Item), amount)
	}
	fmt.Fprintf(&b, "\n%d order(s).", len(orders))
	return b.String()
}

func formatImports(imports []reconcile.Import) string {
	if len(imports) == 0 {
		return "The import queue is empty."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-5s %s\n", "ID", "STATUS")
	for _, imp := range imports {
		fmt.Fprintf(&b, "%-5d %s\n", imp.ID, imp.Status)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatBatches(batches []reconcile.Batch) string {
	if len(batches) == 0 {
		return "No batches waiting for review."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %-10s %s\n", "BATCH", "CUSTOMERS", "ORDERS")
	for _, batch := range batches {
		fmt.Fprintf(&b, "%-8d %-10d %d\n", batch.ID, batch.CustomerCount, batch.OrderCount)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatStaged(batchID int, cols reconcile.Collections) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Batch %d staged rows\n", batchID)
	if len(cols.Customers) > 0 {
		fmt.Fprintf(&b, "\n%-5s %-30s %-30s %s\n", "ID", "NAME", "EMAIL", "PHONE")
		for _, c := range cols.Customers {
			fmt.Fprintf(&b, "%-5d %-30s %-30s %s\n", c.ID, c.Name, c.Email, dash(c.Phone))
		}
	}
	if len(cols.Orders) > 0 {
		fmt.Fprintf(&b, "\n%-5s %-10s %-12s %-20s %s\n", "ID", "CUSTOMER", "DATE", "ITEM", "AMOUNT")
		for _, o := range cols.Orders {
			amount := "-"
			if o.Amount != nil {
				amount = o.Amount.StringFixed(2)
			}
			fmt.Fprintf(&b, "%-5d %-10d %-12s %-20s %s\n",
				o.ID, o.CustomerID, o.OrderDate.Format("2006-01-02"), dash(o.Item), amount)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatLogs(entries []audit.Entry) string {
	if len(entries) == 0 {
		return "No log entries recorded."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-5s %-20s %-9s %s\n", "ID", "WHEN", "LEVEL", "MESSAGE")
	for _, e := range entries {
		fmt.Fprintf(&b, "%-5d %-20s %-9s %s\n",
			e.ID, e.LoggedAt.Format("2006-01-02 15:04:05"), e.Level, e.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatHistory(history []reconcile.ProcessedImport) string {
	if len(history) == 0 {
		return "No imports have been promoted yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-5s %-18s %s\n", "ID", "CUSTOMERS IN JSON", "ORDERS IN JSON")
	for _, h := range history {
		fmt.Fprintf(&b, "%-5d %-18d %d\n", h.ID, h.Customers, h.Orders)
	}
	return strings.TrimRight(b.String(), "\n")
}
