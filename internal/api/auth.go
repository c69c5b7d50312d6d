package api

import (
	"encoding/json"
	"net/http"

	"github.com/corvand/remedy/internal/apperr"
	"github.com/corvand/remedy/internal/session"
)

// AuthHandler serves the login, signup, logout, and session routes.
type AuthHandler struct {
	auth *session.Authenticator
	gate *session.Gate
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth *session.Authenticator, gate *session.Gate) *AuthHandler {
	return &AuthHandler{auth: auth, gate: gate}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, "login", apperr.Validation("invalid credentials payload", err))
		return
	}

	token, err := h.auth.SignIn(req.Email, req.Password)
	if err != nil {
		if apperr.IsValidation(err) {
			writeJSON(w, http.StatusUnauthorized, errorBody("invalid credentials"))
			return
		}
		respondError(w, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token, Identity: h.gate.Identity()})
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, "signup", apperr.Validation("invalid signup payload", err))
		return
	}
	if err := h.auth.SignUp(req.Email, req.Password); err != nil {
		respondError(w, "signup", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.auth.SignOut()
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /api/session: the gate snapshot consumed by routing.
func (h *AuthHandler) Session(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.gate.Snapshot())
}
