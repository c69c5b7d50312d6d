package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/corvand/remedy/internal/blob"
	"github.com/corvand/remedy/internal/cache"
	"github.com/corvand/remedy/internal/editsession"
	"github.com/corvand/remedy/internal/mutate"
	"github.com/corvand/remedy/internal/record"
	"github.com/corvand/remedy/internal/session"
	"github.com/corvand/remedy/internal/store"
	"github.com/corvand/remedy/internal/testutil"
)

type env struct {
	router chi.Router
	docs   *store.Memory
	blobs  *blob.Memory
	auth   *session.Authenticator
}

func newEnv(t *testing.T) *env {
	t.Helper()
	docs, blobs := testutil.Stores(t)
	docs.Seed("medicines", "a", testutil.AspirinFields())
	docs.Seed("medicines", "b", record.FieldSet{"medicineName": "Brufen", "price": "3.20"})
	docs.Seed("orders", "o1", testutil.PendingOrder())

	auth := session.NewAuthenticator("0123456789abcdef0123456789abcdef", time.Hour,
		[]session.Account{{Email: "admin@remedy.test", Password: "s3cret-pass"}}, false)
	gate := session.NewGate(auth)
	t.Cleanup(gate.Close)

	meds := mutate.New(docs, blobs, cache.New[record.Medicine](), "medicines", record.DecodeMedicine, nil)
	orders := mutate.New(docs, blobs, cache.New[record.Order](), "orders", record.DecodeOrder, nil)
	for _, load := range []func(context.Context) error{meds.Load, orders.Load} {
		if err := load(context.Background()); err != nil {
			t.Fatalf("load: %v", err)
		}
	}

	router := NewRouter(Deps{
		Auth:      auth,
		Gate:      gate,
		Medicines: meds,
		Orders:    orders,
		Edit:      editsession.New[record.Medicine](),
	})
	return &env{router: router, docs: docs, blobs: blobs, auth: auth}
}

func (e *env) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) login(t *testing.T) string {
	t.Helper()
	body := strings.NewReader(`{"email":"admin@remedy.test","password":"s3cret-pass"}`)
	w := e.do(t, http.MethodPost, "/auth/login", "", body, "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", w.Code, w.Body.String())
	}
	var resp TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.Token
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

// multipartBody builds a multipart form with the given text fields and an
// optional file under "image".
func multipartBody(t *testing.T, fields map[string]string, fileName string, file []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("image", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(file); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestLoginIssuesToken(t *testing.T) {
	e := newEnv(t)
	token := e.login(t)
	if token == "" {
		t.Fatal("empty token")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	e := newEnv(t)
	body := strings.NewReader(`{"email":"admin@remedy.test","password":"wrong"}`)
	w := e.do(t, http.MethodPost, "/auth/login", "", body, "application/json")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	e := newEnv(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/medicines"},
		{http.MethodGet, "/api/orders"},
		{http.MethodGet, "/api/session"},
		{http.MethodDelete, "/api/medicines/a"},
	} {
		if w := e.do(t, tc.method, tc.path, "", nil, ""); w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token = %d, want 401", tc.method, tc.path, w.Code)
		}
		if w := e.do(t, tc.method, tc.path, "garbage", nil, ""); w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s with bad token = %d, want 401", tc.method, tc.path, w.Code)
		}
	}
}

func TestLogoutClosesGate(t *testing.T) {
	e := newEnv(t)
	token := e.login(t)

	if w := e.do(t, http.MethodPost, "/auth/logout", "", nil, ""); w.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", w.Code)
	}
	// The token is still cryptographically valid, but no session is active.
	if w := e.do(t, http.MethodGet, "/api/medicines", token, nil, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("status after logout = %d, want 401", w.Code)
	}
}

func TestSessionSnapshot(t *testing.T) {
	e := newEnv(t)
	token := e.login(t)
	w := e.do(t, http.MethodGet, "/api/session", token, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	snap := decodeBody[session.State](t, w)
	if !snap.Authenticated || snap.Identity != "admin@remedy.test" {
		t.Errorf("snapshot = %+v", snap)
	}
}

type medicinesPage struct {
	Medicines []MedicineResponse `json:"medicines"`
	Total     int                `json:"total"`
}

func TestListMedicinesWithSearch(t *testing.T) {
	e := newEnv(t)
	token := e.login(t)

	w := e.do(t, http.MethodGet, "/api/medicines", token, nil, "")
	if page := decodeBody[medicinesPage](t, w); page.Total != 2 {
		t.Errorf("unfiltered total = %d, want 2", page.Total)
	}

	w = e.do(t, http.MethodGet, "/api/medicines?q=asp", token, nil, "")
	page := decodeBody[medicinesPage](t, w)
	if page.Total != 1 || page.Medicines[0].MedicineName != "Aspirin" {
		t.Errorf("filtered page = %+v", page)
	}

	w = e.do(t, http.MethodGet, "/api/medicines?q=zzz", token, nil, "")
	if page := decodeBody[medicinesPage](t, w); page.Total != 0 {
		t.Errorf("no-match total = %d, want 0", page.Total)
	}
}

func TestCreateMedicineWithImage(t *testing.T) {
	e := newEnv(t)
	token := e.login(t)

	body, ct := multipartBody(t, map[string]string{
		"medicineName": "Cetirizine",
		"indications":  "Allergy",
		"doses":        "1 daily",
		"weight":       "10mg",
		"price":        "4.80",
	}, "cetirizine.png", []byte("png-bytes"))

	w := e.do(t, http.MethodPost, "/api/medicines", token, body, ct)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	created := decodeBody[MedicineResponse](t, w)
	if created.ID == "" || created.MedicineName != "Cetirizine" {
		t.Errorf("created = %+v", created)
	}
	if !strings.HasPrefix(created.ImageURL, "blob://medicines/") {
		t.Errorf("image url = %q", created.ImageURL)
	}
	if e.blobs.UploadCalls != 1 {
		t.Errorf("upload calls = %d, want 1", e.blobs.UploadCalls)
	}
}

func TestCreateMedicineValidation(t *testing.T) {
	e := newEnv(t)
	token := e.login(t)

	body, ct := multipartBody(t, map[string]string{
		"medicineName": "Cetirizine",
		"price":        "not-a-number",
	}, "", nil)
	w := e.do(t, http.MethodPost, "/api/medicines", token, body, ct)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
	if e.docs.CreateCalls != 0 {
		t.Errorf("store called despite invalid form: %d", e.docs.CreateCalls)
	}
}

func TestUpdateMedicinePartialForm(t *testing.T) {
	e := newEnv(t)
	token := e.login(t)

	body, ct := multipartBody(t, map[string]string{"price": "6.50"}, "", nil)
	w := e.do(t, http.MethodPut, "/api/medicines/a", token, body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	updated := decodeBody[MedicineResponse](t, w)
	if updated.Price != "6.50" || updated.MedicineName != "Aspirin" {
		t.Errorf("updated = %+v", updated)
	}
	if len(e.docs.Updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(e.docs.Updates))
	}
	if _, present := e.docs.Updates[0].Fields[record.KeyImageURL]; present {
		t.Error("assetless update carried the asset-reference key")
	}
}

func TestUpdateMedicineUnknownID(t *testing.T) {
	e := newEnv(t)
	token := e.login(t)
	body, ct := multipartBody(t, map[string]string{"price": "6.50"}, "", nil)
	w := e.do(t, http.MethodPut, "/api/medicines/ghost", token, body, ct)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUpdateMedicineBadPrice(t *testing.T) {
	e := newEnv(t)
	token := e.login(t)
	body, ct := multipartBody(t, map[string]string{"price": "abc"}, "", nil)
	w := e.do(t, http.MethodPut, "/api/medicines/a", token, body, ct)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if e.docs.UpdateCalls != 0 {
		t.Errorf("store called despite invalid price: %d", e.docs.UpdateCalls)
	}
}

func TestDeleteMedicine(t *testing.T) {
	e := newEnv(t)
	token := e.login(t)

	if w := e.do(t, http.MethodDelete, "/api/medicines/a", token, nil, ""); w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	w := e.do(t, http.MethodGet, "/api/medicines", token, nil, "")
	if page := decodeBody[medicinesPage](t, w); page.Total != 1 {
		t.Errorf("total after delete = %d, want 1", page.Total)
	}
	if w := e.do(t, http.MethodDelete, "/api/medicines/a", token, nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestCancelEdit(t *testing.T) {
	e := newEnv(t)
	token := e.login(t)
	if w := e.do(t, http.MethodPost, "/api/medicines/edit/cancel", token, nil, ""); w.Code != http.StatusNoContent {
		t.Errorf("status = %d", w.Code)
	}
}

type ordersPage struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

func TestListOrders(t *testing.T) {
	e := newEnv(t)
	token := e.login(t)
	w := e.do(t, http.MethodGet, "/api/orders", token, nil, "")
	page := decodeBody[ordersPage](t, w)
	if page.Total != 1 || page.Orders[0].OrderID != "ORD-1001" {
		t.Fatalf("page = %+v", page)
	}
	if page.Orders[0].DeliveryStatus != "Pending" {
		t.Errorf("status = %q", page.Orders[0].DeliveryStatus)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	e := newEnv(t)
	token := e.login(t)

	body := strings.NewReader(`{"deliveryStatus":"Shipped"}`)
	w := e.do(t, http.MethodPut, "/api/orders/o1/status", token, body, "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	updated := decodeBody[OrderResponse](t, w)
	if updated.DeliveryStatus != "Shipped" {
		t.Errorf("delivery status = %q", updated.DeliveryStatus)
	}
	// Only the status field travels to the store.
	if len(e.docs.Updates) != 1 || len(e.docs.Updates[0].Fields) != 1 {
		t.Errorf("updates = %+v", e.docs.Updates)
	}
}

func TestUpdateOrderStatusValidation(t *testing.T) {
	e := newEnv(t)
	token := e.login(t)

	w := e.do(t, http.MethodPut, "/api/orders/o1/status", token, strings.NewReader(`{}`), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty status = %d, want 400", w.Code)
	}

	body := strings.NewReader(`{"deliveryStatus":"Shipped"}`)
	w = e.do(t, http.MethodPut, "/api/orders/ghost/status", token, body, "application/json")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown order = %d, want 404", w.Code)
	}
}
