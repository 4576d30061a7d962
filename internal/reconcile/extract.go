package reconcile

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// wrapperKey is the envelope some sources nest their collections under.
const wrapperKey = "record"

// CandidateCustomer is a customer object as it appears in an ingested
// document. The phone field historically shipped under "telefone"; both
// spellings are accepted.
type CandidateCustomer struct {
	ID    int
	Name  string
	Email string
	Phone *string
}

func (c *CandidateCustomer) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       int     `json:"id"`
		Name     string  `json:"name"`
		Email    string  `json:"email"`
		Telefone *string `json:"telefone"`
		Phone    *string `json:"phone"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.ID = raw.ID
	c.Name = raw.Name
	c.Email = raw.Email
	c.Phone = raw.Telefone
	if c.Phone == nil {
		c.Phone = raw.Phone
	}
	return nil
}

// CandidateOrder is an order object as it appears in an ingested document.
// A missing or unparseable order_date falls back to today, matching the
// store column default.
type CandidateOrder struct {
	ID         int
	CustomerID int
	OrderDate  time.Time
	Item       *string
	Amount     *decimal.Decimal
}

func (o *CandidateOrder) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         int              `json:"id"`
		CustomerID int              `json:"customer_id"`
		OrderDate  string           `json:"order_date"`
		Item       *string          `json:"item"`
		Amount     *decimal.Decimal `json:"amount"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.ID = raw.ID
	o.CustomerID = raw.CustomerID
	o.OrderDate = parseOrderDate(raw.OrderDate)
	o.Item = raw.Item
	o.Amount = raw.Amount
	return nil
}

func parseOrderDate(s string) time.Time {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now()
}

// Collections holds the candidate entities located in a raw document.
type Collections struct {
	Customers []CandidateCustomer
	Orders    []CandidateOrder
}

// Empty reports whether neither collection holds a candidate.
func (c Collections) Empty() bool {
	return len(c.Customers) == 0 && len(c.Orders) == 0
}

// LocateEntityCollections resolves where a raw document keeps its entity
// collections. Sources differ in envelope convention: some put customers
// and orders at the root, others nest them one level under a "record"
// wrapper. Resolution order: root wins if it carries either collection
// directly; otherwise the wrapper object is tried; otherwise the document
// is reported as not matching. A located collection whose elements do not
// decode is an error: no candidate may silently degrade to a zero-value
// row.
func LocateEntityCollections(doc []byte) (Collections, bool, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(doc, &root); err != nil {
		return Collections{}, false, nil
	}

	if _, hasCustomers := root["customers"]; hasCustomers {
		cols, err := decodeCollections(root)
		return cols, true, err
	}
	if _, hasOrders := root["orders"]; hasOrders {
		cols, err := decodeCollections(root)
		return cols, true, err
	}

	if wrapped, ok := root[wrapperKey]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(wrapped, &inner); err == nil && inner != nil {
			cols, err := decodeCollections(inner)
			return cols, true, err
		}
	}
	return Collections{}, false, nil
}

func decodeCollections(obj map[string]json.RawMessage) (Collections, error) {
	var out Collections
	if raw, ok := obj["customers"]; ok {
		if err := json.Unmarshal(raw, &out.Customers); err != nil {
			return Collections{}, fmt.Errorf("customers collection: %w", err)
		}
	}
	if raw, ok := obj["orders"]; ok {
		if err := json.Unmarshal(raw, &out.Orders); err != nil {
			return Collections{}, fmt.Errorf("orders collection: %w", err)
		}
	}
	return out, nil
}
