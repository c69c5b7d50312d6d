package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/corvand/remedy/internal/apperr"
	"github.com/corvand/remedy/internal/record"
)

// drivers runs the shared contract over every Store implementation.
func drivers(t *testing.T) map[string]Store {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "remedy.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return map[string]Store{
		"sqlite": db,
		"memory": NewMemory(),
	}
}

func fieldsOf(t *testing.T, doc Document) map[string]any {
	t.Helper()
	out := map[string]any{}
	if err := json.Unmarshal(doc.Fields, &out); err != nil {
		t.Fatalf("decode %s: %v", doc.ID, err)
	}
	return out
}

func TestCreateFetchRoundTrip(t *testing.T) {
	for name, st := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id, err := st.Create(ctx, "medicines", record.FieldSet{"medicineName": "Aspirin", "price": "5.00"})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if id == "" {
				t.Fatal("empty id")
			}

			docs, err := st.FetchAll(ctx, "medicines")
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if len(docs) != 1 || docs[0].ID != id {
				t.Fatalf("docs = %+v", docs)
			}
			if got := fieldsOf(t, docs[0]); got["medicineName"] != "Aspirin" {
				t.Errorf("fields = %+v", got)
			}
		})
	}
}

func TestCollectionsAreIsolated(t *testing.T) {
	for name, st := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := st.Create(ctx, "medicines", record.FieldSet{"medicineName": "Aspirin"}); err != nil {
				t.Fatalf("create: %v", err)
			}
			docs, err := st.FetchAll(ctx, "orders")
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if len(docs) != 0 {
				t.Errorf("orders sees medicines documents: %+v", docs)
			}
		})
	}
}

func TestUpdateMergesPartialFields(t *testing.T) {
	for name, st := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id, err := st.Create(ctx, "medicines", record.FieldSet{"medicineName": "Aspirin", "price": "5.00"})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if err := st.Update(ctx, "medicines", id, record.FieldSet{"price": "6.50"}); err != nil {
				t.Fatalf("update: %v", err)
			}

			docs, err := st.FetchAll(ctx, "medicines")
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			got := fieldsOf(t, docs[0])
			if got["price"] != "6.50" || got["medicineName"] != "Aspirin" {
				t.Errorf("merged fields = %+v", got)
			}
		})
	}
}

func TestUpdateMissingDocument(t *testing.T) {
	for name, st := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			err := st.Update(context.Background(), "medicines", "ghost", record.FieldSet{"price": "1.00"})
			if !errors.Is(err, apperr.ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	for name, st := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id, err := st.Create(ctx, "medicines", record.FieldSet{"medicineName": "Aspirin"})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if err := st.Delete(ctx, "medicines", id); err != nil {
				t.Fatalf("delete: %v", err)
			}
			docs, err := st.FetchAll(ctx, "medicines")
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if len(docs) != 0 {
				t.Errorf("document survived delete: %+v", docs)
			}
			if err := st.Delete(ctx, "medicines", id); !errors.Is(err, apperr.ErrNotFound) {
				t.Errorf("second delete err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestFetchAllPreservesInsertionOrder(t *testing.T) {
	for name, st := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var want []string
			for _, n := range []string{"Aspirin", "Brufen", "Cetirizine"} {
				id, err := st.Create(ctx, "medicines", record.FieldSet{"medicineName": n})
				if err != nil {
					t.Fatalf("create %s: %v", n, err)
				}
				want = append(want, id)
			}
			docs, err := st.FetchAll(ctx, "medicines")
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			for i, doc := range docs {
				if doc.ID != want[i] {
					t.Fatalf("position %d: got %s want %s", i, doc.ID, want[i])
				}
			}
		})
	}
}

func TestMemoryFailureInjection(t *testing.T) {
	m := NewMemory()
	m.FailCreate = errors.New("down")
	if _, err := m.Create(context.Background(), "medicines", record.FieldSet{"a": "b"}); err == nil {
		t.Fatal("expected injected failure")
	}
	if m.CreateCalls != 1 {
		t.Errorf("create calls = %d, want 1", m.CreateCalls)
	}
}
