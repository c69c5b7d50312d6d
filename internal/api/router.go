package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/corvand/remedy/internal/editsession"
	"github.com/corvand/remedy/internal/mutate"
	"github.com/corvand/remedy/internal/record"
	"github.com/corvand/remedy/internal/session"
)

// Deps bundles everything the router serves.
type Deps struct {
	Auth      *session.Authenticator
	Gate      *session.Gate
	Medicines *mutate.Coordinator[record.Medicine]
	Orders    *mutate.Coordinator[record.Order]
	Edit      *editsession.Session[record.Medicine]
	// Events, if non-nil, is mounted at GET /api/events.
	Events http.Handler
	// AssetRoot, if non-empty, enables serving files under /assets.
	AssetRoot string
}

// NewRouter creates a chi router with the auth routes open and everything
// under /api guarded by the session middleware.
func NewRouter(d Deps) chi.Router {
	ah := NewAuthHandler(d.Auth, d.Gate)
	inv := NewInventoryHandler(d.Medicines, d.Edit)
	ord := NewOrdersHandler(d.Orders)

	r := chi.NewRouter()

	// Sign-in surface.
	r.Post("/auth/login", ah.Login)
	r.Post("/auth/signup", ah.Signup)
	r.Post("/auth/logout", ah.Logout)

	// Uploaded assets are public by URL, like any blob-store object.
	if d.AssetRoot != "" {
		assets := NewAssetHandler(d.AssetRoot)
		r.Get("/assets/*", assets.Serve)
	}

	// Protected views.
	r.Route("/api", func(r chi.Router) {
		r.Use(RequireSession(d.Auth, d.Gate))

		r.Get("/session", ah.Session)

		// Inventory and upload views.
		r.Get("/medicines", inv.List)
		r.Post("/medicines", inv.Create)
		r.Put("/medicines/{id}", inv.Update)
		r.Delete("/medicines/{id}", inv.Delete)
		r.Post("/medicines/edit/cancel", inv.CancelEdit)

		// Orders view.
		r.Get("/orders", ord.List)
		r.Put("/orders/{id}/status", ord.UpdateStatus)

		if d.Events != nil {
			r.Get("/events", d.Events.ServeHTTP)
		}
	})

	return r
}
