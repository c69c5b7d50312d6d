package api

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/corvand/remedy/internal/apperr"
	"github.com/corvand/remedy/internal/blob"
	"github.com/corvand/remedy/internal/editsession"
	"github.com/corvand/remedy/internal/mutate"
	"github.com/corvand/remedy/internal/record"
	"github.com/corvand/remedy/internal/view"
)

const maxUploadBytes = 10 << 20 // 10 MB

// InventoryHandler serves the upload and inventory views: catalog listing,
// creation with an optional image, row editing, and deletion.
type InventoryHandler struct {
	meds    *mutate.Coordinator[record.Medicine]
	session *editsession.Session[record.Medicine]
}

// NewInventoryHandler creates an InventoryHandler.
func NewInventoryHandler(meds *mutate.Coordinator[record.Medicine], s *editsession.Session[record.Medicine]) *InventoryHandler {
	return &InventoryHandler{meds: meds, session: s}
}

// List handles GET /api/medicines?q=. The result is the cache snapshot
// narrowed by the search term over the medicine name.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	matched := view.Filter(h.meds.Cache().Snapshot(), term, func(m record.Medicine) string {
		return m.MedicineName
	})

	items := make([]MedicineResponse, 0, len(matched))
	for _, m := range matched {
		items = append(items, toMedicineResponse(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"medicines": items,
		"total":     len(items),
	})
}

// Create handles POST /api/medicines (multipart form, optional "image"
// file). The image, when present, is uploaded before the document is
// created.
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form"))
		return
	}

	req := CreateMedicineRequest{
		MedicineName: r.FormValue("medicineName"),
		Indications:  r.FormValue("indications"),
		Doses:        r.FormValue("doses"),
		Weight:       r.FormValue("weight"),
		Price:        r.FormValue("price"),
		Category:     r.FormValue("category"),
	}
	if err := req.Validate(); err != nil {
		respondError(w, "create medicine", apperr.Validation("invalid medicine", err))
		return
	}

	asset, err := formFile(r, "image")
	if err != nil {
		respondError(w, "create medicine", err)
		return
	}

	created, err := h.meds.Create(r.Context(), req.Fields(), asset)
	if err != nil {
		respondError(w, "create medicine", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMedicineResponse(created))
}

// Update handles PUT /api/medicines/{id} (multipart form; only provided
// fields are written, optional "image" file replaces the asset). The edit
// session scopes the change to one row at a time.
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form"))
		return
	}

	current, ok := h.meds.Cache().Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}

	patch, err := medicinePatch(r)
	if err != nil {
		respondError(w, "update medicine", err)
		return
	}

	h.session.Begin(current)
	h.session.Set(func(m *record.Medicine) { applyForm(r, m) })

	asset, err := formFile(r, "image")
	if err != nil {
		respondError(w, "update medicine", err)
		return
	}
	if asset != nil {
		h.session.SelectAsset(asset)
	}

	err = h.session.Save(r.Context(), func(ctx context.Context, id string, _ record.Medicine, pending *blob.File) error {
		return h.meds.Update(ctx, id, patch, pending, mutate.RefreshLocal)
	})
	if err != nil {
		// The session keeps the draft so the operator can retry.
		respondError(w, "update medicine", err)
		return
	}

	updated, _ := h.meds.Cache().Get(id)
	writeJSON(w, http.StatusOK, toMedicineResponse(updated))
}

// Delete handles DELETE /api/medicines/{id}. The row disappears from the
// view only after the store confirmed the delete.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.meds.Delete(r.Context(), id); err != nil {
		respondError(w, "delete medicine", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CancelEdit handles POST /api/medicines/edit/cancel: discard the draft
// without any store call.
func (h *InventoryHandler) CancelEdit(w http.ResponseWriter, _ *http.Request) {
	h.session.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// medicinePatch builds the partial update from the fields present in the
// form. Absent fields stay untouched in the store.
func medicinePatch(r *http.Request) (record.MedicinePatch, error) {
	var p record.MedicinePatch
	values := r.MultipartForm.Value
	if v, ok := values["medicineName"]; ok && len(v) > 0 {
		p = p.WithName(v[0])
	}
	if v, ok := values["indications"]; ok && len(v) > 0 {
		p = p.WithIndications(v[0])
	}
	if v, ok := values["doses"]; ok && len(v) > 0 {
		p = p.WithDoses(v[0])
	}
	if v, ok := values["weight"]; ok && len(v) > 0 {
		p = p.WithWeight(v[0])
	}
	if v, ok := values["price"]; ok && len(v) > 0 {
		if err := validPrice(v[0]); err != nil {
			return p, apperr.Validation("invalid price", err)
		}
		p = p.WithPrice(v[0])
	}
	if v, ok := values["category"]; ok && len(v) > 0 {
		p = p.WithCategory(v[0])
	}
	return p, nil
}

// applyForm mirrors the provided form fields onto the draft.
func applyForm(r *http.Request, m *record.Medicine) {
	values := r.MultipartForm.Value
	if v, ok := values["medicineName"]; ok && len(v) > 0 {
		m.MedicineName = v[0]
	}
	if v, ok := values["indications"]; ok && len(v) > 0 {
		m.Indications = v[0]
	}
	if v, ok := values["doses"]; ok && len(v) > 0 {
		m.Doses = v[0]
	}
	if v, ok := values["weight"]; ok && len(v) > 0 {
		m.Weight = v[0]
	}
	if v, ok := values["price"]; ok && len(v) > 0 {
		m.Price = record.Scalar(v[0])
	}
	if v, ok := values["category"]; ok && len(v) > 0 {
		m.Category = v[0]
	}
}

// formFile reads the named multipart file, nil when absent.
func formFile(r *http.Request, field string) (*blob.File, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Validation("invalid file upload", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, apperr.Validation("read file upload", err)
	}
	return &blob.File{Name: header.Filename, Content: content}, nil
}
