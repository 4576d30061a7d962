package reconcile

import (
	"testing"
	"time"
)

func TestLocateEntityCollections(t *testing.T) {
	tests := []struct {
		name          string
		doc           string
		wantFound     bool
		wantCustomers int
		wantOrders    int
	}{
		{
			name:          "collections at root",
			doc:           `{"customers":[{"id":1,"name":"Ana","email":"a@x.com"}],"orders":[{"id":10,"customer_id":1}]}`,
			wantFound:     true,
			wantCustomers: 1,
			wantOrders:    1,
		},
		{
			name:          "orders only at root",
			doc:           `{"orders":[{"id":10,"customer_id":1},{"id":11,"customer_id":2}]}`,
			wantFound:     true,
			wantOrders:    2,
		},
		{
			name:          "collections under record wrapper",
			doc:           `{"record":{"customers":[{"id":1,"name":"Ana","email":"a@x.com"}]}}`,
			wantFound:     true,
			wantCustomers: 1,
		},
		{
			name:      "root wins over wrapper",
			doc:       `{"customers":[],"record":{"customers":[{"id":1}]}}`,
			wantFound: true,
		},
		{
			name:      "wrapper value not an object",
			doc:       `{"record":[1,2,3]}`,
			wantFound: false,
		},
		{
			name:      "neither collection present",
			doc:       `{"items":[1,2]}`,
			wantFound: false,
		},
		{
			name:      "not a JSON object",
			doc:       `[1,2,3]`,
			wantFound: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, found, err := LocateEntityCollections([]byte(tt.doc))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if got := len(cols.Customers); got != tt.wantCustomers {
				t.Errorf("customers = %d, want %d", got, tt.wantCustomers)
			}
			if got := len(cols.Orders); got != tt.wantOrders {
				t.Errorf("orders = %d, want %d", got, tt.wantOrders)
			}
		})
	}
}

func TestLocateEntityCollections_MalformedElement(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "customer id is not a number",
			doc:  `{"customers":[{"id":"not-a-number","name":"Ana","email":"a@x.com"}]}`,
		},
		{
			name: "customers is not an array",
			doc:  `{"customers":{"id":1}}`,
		},
		{
			name: "order amount is not a number",
			doc:  `{"orders":[{"id":10,"customer_id":1,"amount":"lots"}]}`,
		},
		{
			name: "malformed element under wrapper",
			doc:  `{"record":{"orders":[{"id":"x"}]}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, found, err := LocateEntityCollections([]byte(tt.doc))
			if err == nil {
				t.Fatal("want a decode error, got none")
			}
			if !found {
				t.Error("collections were located, found should be true")
			}
			if !cols.Empty() {
				t.Errorf("malformed document yielded candidates: %+v", cols)
			}
		})
	}
}

func TestCandidateCustomer_PhoneAliases(t *testing.T) {
	cols, found, err := LocateEntityCollections([]byte(
		`{"customers":[
			{"id":1,"name":"Ana","email":"a@x.com","telefone":"11 1111"},
			{"id":2,"name":"Bia","email":"b@x.com","phone":"11 2222"},
			{"id":3,"name":"Caio","email":"c@x.com"}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("collections not found")
	}
	if got := *cols.Customers[0].Phone; got != "11 1111" {
		t.Errorf("telefone alias: got %q", got)
	}
	if got := *cols.Customers[1].Phone; got != "11 2222" {
		t.Errorf("phone key: got %q", got)
	}
	if cols.Customers[2].Phone != nil {
		t.Errorf("missing phone should be nil, got %q", *cols.Customers[2].Phone)
	}
}

func TestCandidateOrder_Decoding(t *testing.T) {
	cols, found, err := LocateEntityCollections([]byte(
		`{"orders":[
			{"id":10,"customer_id":1,"order_date":"2026-03-01","item":"Teclado","amount":149.90},
			{"id":11,"customer_id":1}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("collections not found")
	}

	o := cols.Orders[0]
	if want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC); !o.OrderDate.Equal(want) {
		t.Errorf("order_date = %v, want %v", o.OrderDate, want)
	}
	if o.Amount == nil || o.Amount.String() != "149.9" {
		t.Errorf("amount = %v, want 149.9", o.Amount)
	}

	// absent date falls back to today
	if cols.Orders[1].OrderDate.IsZero() {
		t.Error("missing order_date should default, got zero time")
	}
	if cols.Orders[1].Amount != nil {
		t.Errorf("missing amount should be nil, got %v", cols.Orders[1].Amount)
	}
}
