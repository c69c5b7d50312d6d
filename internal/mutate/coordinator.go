// Package mutate sequences multi-step writes so that callers observe either
// a fully-applied change or no change at all.
package mutate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/VictoriaMetrics/metrics"
	"github.com/oklog/ulid/v2"

	"github.com/corvand/remedy/internal/apperr"
	"github.com/corvand/remedy/internal/blob"
	"github.com/corvand/remedy/internal/cache"
	"github.com/corvand/remedy/internal/record"
	"github.com/corvand/remedy/internal/store"
)

// RefreshPolicy selects how the cache is brought back in line after a
// successful store write.
type RefreshPolicy int

const (
	// RefreshLocal applies the written fields to the cached copy in place.
	RefreshLocal RefreshPolicy = iota
	// RefreshFull reloads the whole collection from the store. Slower, but
	// guarantees the view matches the store exactly; the default for
	// low-frequency admin actions.
	RefreshFull
)

// EventSink receives record change notifications after successful writes.
type EventSink interface {
	RecordChanged(collection, kind, id string)
}

// Coordinator funnels every write for one collection: asset upload, document
// write, then cache update, in that order. An upload failure aborts the
// whole operation before any document write is attempted.
type Coordinator[T record.Record] struct {
	store      store.Store
	blobs      blob.Store
	cache      *cache.Cache[T]
	collection string
	decode     func(id string, fields []byte) (T, error)
	events     EventSink // optional
}

// New builds a coordinator for one collection.
func New[T record.Record](
	st store.Store,
	bl blob.Store,
	c *cache.Cache[T],
	collection string,
	decode func(id string, fields []byte) (T, error),
	events EventSink,
) *Coordinator[T] {
	return &Coordinator[T]{
		store:      st,
		blobs:      bl,
		cache:      c,
		collection: collection,
		decode:     decode,
		events:     events,
	}
}

// Cache exposes the collection cache for read paths.
func (co *Coordinator[T]) Cache() *cache.Cache[T] { return co.cache }

// Collection returns the collection name this coordinator is bound to.
func (co *Coordinator[T]) Collection() string { return co.collection }

// Load replaces the cache from a full fetch. Documents that fail to decode
// are logged and skipped; the load itself still succeeds.
func (co *Coordinator[T]) Load(ctx context.Context) error {
	gen := co.cache.BeginLoad()
	docs, err := co.store.FetchAll(ctx, co.collection)
	if err != nil {
		remote := apperr.Remote("fetch "+co.collection, err)
		co.cache.Complete(gen, nil, remote)
		co.countFailure("load")
		return remote
	}
	records := make([]T, 0, len(docs))
	for _, doc := range docs {
		rec, err := co.decode(doc.ID, doc.Fields)
		if err != nil {
			slog.Warn("mutate: skipping undecodable document",
				slog.String("collection", co.collection),
				slog.String("id", doc.ID),
				slog.String("error", err.Error()))
			continue
		}
		records = append(records, rec)
	}
	co.cache.Complete(gen, records, nil)
	co.count("load")
	return nil
}

// Create persists a new record. When an asset file is supplied it is
// uploaded first and its resolved URL embedded into the field set; only then
// is the document create issued. A failed create after a successful upload
// leaves the asset orphaned, which is accepted.
func (co *Coordinator[T]) Create(ctx context.Context, fields record.FieldSet, asset *blob.File) (T, error) {
	var zero T
	if len(fields) == 0 {
		co.countFailure("create")
		return zero, apperr.Validationf("create %s: empty field set", co.collection)
	}

	if asset != nil {
		// The document id does not exist yet, so a fresh ULID keys the
		// asset path; collision-free, unlike keying by file name.
		path := co.collection + "/" + ulid.Make().String()
		url, err := co.uploadAsset(ctx, path, asset)
		if err != nil {
			co.countFailure("create")
			return zero, err
		}
		fields[record.KeyImageURL] = url
	}

	id, err := co.store.Create(ctx, co.collection, fields)
	if err != nil {
		co.countFailure("create")
		return zero, apperr.Remote("create "+co.collection, err)
	}

	rec, err := co.decodeFields(id, fields)
	if err != nil {
		// The document is persisted; fall back to a full reload so the
		// view does not drift from the store.
		if loadErr := co.Load(ctx); loadErr != nil {
			return zero, loadErr
		}
		rec, _ = co.cache.Get(id)
	} else {
		co.cache.Insert(rec)
	}

	co.count("create")
	co.publish("created", id)
	return rec, nil
}

// Update merges the patch into the stored document. A new asset, when
// supplied, is uploaded and resolved before the document write; a patch
// without an asset change never carries the asset-reference key, so the
// existing reference is preserved. After the write the cache is refreshed
// per policy.
func (co *Coordinator[T]) Update(ctx context.Context, id string, patch record.Patch, asset *blob.File, refresh RefreshPolicy) error {
	if id == "" {
		co.countFailure("update")
		return apperr.Validationf("update %s: id is required", co.collection)
	}
	fields := patch.Fields()
	if asset != nil {
		url, err := co.uploadAsset(ctx, co.collection+"/"+id, asset)
		if err != nil {
			co.countFailure("update")
			return err
		}
		fields[record.KeyImageURL] = url
	}
	if len(fields) == 0 {
		co.countFailure("update")
		return apperr.Validationf("update %s/%s: empty field set", co.collection, id)
	}

	if err := co.store.Update(ctx, co.collection, id, fields); err != nil {
		co.countFailure("update")
		return apperr.Remote(fmt.Sprintf("update %s/%s", co.collection, id), err)
	}

	co.count("update")
	co.publish("updated", id)

	if refresh == RefreshFull {
		return co.Load(ctx)
	}
	co.cache.Apply(id, func(rec T) T {
		merged, err := co.mergeRecord(id, rec, fields)
		if err != nil {
			slog.Warn("mutate: local merge failed, keeping stored copy",
				slog.String("collection", co.collection),
				slog.String("id", id),
				slog.String("error", err.Error()))
			return rec
		}
		return merged
	})
	return nil
}

// Delete removes the document from the store and, only on success, from the
// cache. There is no optimistic delete: a store failure leaves the record
// visible.
func (co *Coordinator[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		co.countFailure("delete")
		return apperr.Validationf("delete %s: id is required", co.collection)
	}
	if err := co.store.Delete(ctx, co.collection, id); err != nil {
		co.countFailure("delete")
		return apperr.Remote(fmt.Sprintf("delete %s/%s", co.collection, id), err)
	}
	co.cache.Remove(id)
	co.count("delete")
	co.publish("deleted", id)
	return nil
}

// uploadAsset uploads the file and resolves its URL. No document write may
// happen unless both steps succeed.
func (co *Coordinator[T]) uploadAsset(ctx context.Context, path string, asset *blob.File) (string, error) {
	h, err := co.blobs.Upload(ctx, path, bytes.NewReader(asset.Content), int64(len(asset.Content)))
	if err != nil {
		return "", apperr.Upload(path, err)
	}
	url, err := co.blobs.ResolveURL(h)
	if err != nil {
		return "", apperr.Upload(path, err)
	}
	return url, nil
}

// decodeFields builds a typed record from a field set and identifier.
func (co *Coordinator[T]) decodeFields(id string, fields record.FieldSet) (T, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("mutate: encode fields: %w", err)
	}
	return co.decode(id, raw)
}

// mergeRecord overlays the written fields onto the cached record by a JSON
// round trip, mirroring the merge the store performed.
func (co *Coordinator[T]) mergeRecord(id string, rec T, fields record.FieldSet) (T, error) {
	var zero T
	raw, err := json.Marshal(rec)
	if err != nil {
		return zero, err
	}
	base := map[string]any{}
	if err := json.Unmarshal(raw, &base); err != nil {
		return zero, err
	}
	for k, v := range fields {
		base[k] = v
	}
	merged, err := json.Marshal(base)
	if err != nil {
		return zero, err
	}
	return co.decode(id, merged)
}

func (co *Coordinator[T]) publish(kind, id string) {
	if co.events != nil {
		co.events.RecordChanged(co.collection, kind, id)
	}
}

func (co *Coordinator[T]) count(op string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(
		`remedy_mutations_total{collection=%q,op=%q}`, co.collection, op)).Inc()
}

func (co *Coordinator[T]) countFailure(op string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(
		`remedy_mutation_failures_total{collection=%q,op=%q}`, co.collection, op)).Inc()
}
