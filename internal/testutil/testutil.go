// Package testutil provides shared test helpers for stores and fixtures.
package testutil

import (
	"testing"

	"github.com/corvand/remedy/internal/blob"
	"github.com/corvand/remedy/internal/record"
	"github.com/corvand/remedy/internal/store"
)

// Stores creates a memory document store and a memory blob store.
func Stores(t *testing.T) (*store.Memory, *blob.Memory) {
	t.Helper()
	return store.NewMemory(), blob.NewMemory()
}

// FSBlob creates a temporary filesystem blob store.
func FSBlob(t *testing.T) *blob.FS {
	t.Helper()
	fs, err := blob.NewFS(t.TempDir(), "http://test.local/assets")
	if err != nil {
		t.Fatal(err)
	}
	return fs
}

// Aspirin is a catalog fixture used across tests.
func Aspirin(id string) record.Medicine {
	return record.Medicine{
		ID:           id,
		MedicineName: "Aspirin",
		Indications:  "Pain relief",
		Doses:        "1 tablet twice daily",
		Weight:       "500mg",
		Price:        "5.00",
	}
}

// AspirinFields is the stored field set matching Aspirin.
func AspirinFields() record.FieldSet {
	return record.NewMedicineFields(Aspirin(""))
}

// PendingOrder is an order field-set fixture with status "Pending".
func PendingOrder() record.FieldSet {
	return record.FieldSet{
		"orderId":        "ORD-1001",
		"name":           "Jane Doe",
		"address":        "1 Main St",
		"city":           "Springfield",
		"postalCode":     "12345",
		"country":        "US",
		"phoneNumber":    "555-0100",
		"email":          "jane@example.com",
		"paymentMethod":  "card",
		"totalAmount":    "27.50",
		"deliveryStatus": "Pending",
		"items": []map[string]any{
			{"medicineName": "Aspirin", "price": "5.00"},
		},
	}
}
