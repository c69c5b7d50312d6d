// Package record defines the domain types persisted in the document store.
package record

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is one entity held in a collection cache. Identifiers are assigned
// by the store on creation and never change afterwards.
type Record interface {
	RecordID() string
}

// Scalar is a string field that tolerates upstream producers writing either
// JSON strings or JSON numbers. It always marshals back as a string.
type Scalar string

func (s *Scalar) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = Scalar(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("record: scalar field: %w", err)
	}
	*s = Scalar(n.String())
	return nil
}

// FormatAmount renders a monetary scalar with two decimals when it parses as
// a number. Values that fail coercion are returned as-is, never dropped.
func FormatAmount(v Scalar) string {
	f, err := strconv.ParseFloat(string(v), 64)
	if err != nil {
		return string(v)
	}
	return fmt.Sprintf("%.2f", f)
}

// Medicine is one catalog item in the "medicines" collection.
type Medicine struct {
	ID           string `json:"-"`
	MedicineName string `json:"medicineName"`
	Indications  string `json:"indications"`
	Doses        string `json:"doses"`
	Weight       string `json:"weight"`
	Price        Scalar `json:"price"`
	ImageURL     string `json:"imageUrl,omitempty"`
	Category     string `json:"category,omitempty"`
}

func (m Medicine) RecordID() string { return m.ID }

// DecodeMedicine builds a Medicine from a stored document.
func DecodeMedicine(id string, fields []byte) (Medicine, error) {
	var m Medicine
	if err := json.Unmarshal(fields, &m); err != nil {
		return Medicine{}, fmt.Errorf("record: decode medicine %s: %w", id, err)
	}
	m.ID = id
	return m, nil
}

// OrderItem is one line item of an order, fixed at order creation.
type OrderItem struct {
	MedicineName string `json:"medicineName"`
	Price        Scalar `json:"price"`
}

// Order is one record in the "orders" collection. Only DeliveryStatus is
// mutable from the console.
type Order struct {
	ID             string      `json:"-"`
	OrderID        string      `json:"orderId"`
	Name           string      `json:"name"`
	Address        string      `json:"address"`
	City           string      `json:"city"`
	PostalCode     string      `json:"postalCode"`
	Country        string      `json:"country"`
	PhoneNumber    string      `json:"phoneNumber"`
	Email          string      `json:"email"`
	PaymentMethod  string      `json:"paymentMethod"`
	TotalAmount    Scalar      `json:"totalAmount"`
	DeliveryStatus string      `json:"deliveryStatus"`
	Items          []OrderItem `json:"items,omitempty"`
}

func (o Order) RecordID() string { return o.ID }

// DecodeOrder builds an Order from a stored document.
func DecodeOrder(id string, fields []byte) (Order, error) {
	var o Order
	if err := json.Unmarshal(fields, &o); err != nil {
		return Order{}, fmt.Errorf("record: decode order %s: %w", id, err)
	}
	o.ID = id
	return o, nil
}
