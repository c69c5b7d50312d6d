package session

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/corvand/remedy/internal/apperr"
)

// Account is one staff credential pair.
type Account struct {
	Email    string
	Password string
}

// Authenticator implements the authentication collaborator: it validates
// staff credentials, issues HMAC-signed session tokens, and emits the
// session signal on every sign-in and sign-out. It implements Signal.
type Authenticator struct {
	secret      []byte
	ttl         time.Duration
	allowSignup bool

	mu       sync.Mutex
	accounts map[string]string // email -> password
	state    State
	subs     map[int]func(State)
	nextSub  int
}

// NewAuthenticator builds an authenticator with the configured accounts.
func NewAuthenticator(secret string, ttl time.Duration, accounts []Account, allowSignup bool) *Authenticator {
	byEmail := make(map[string]string, len(accounts))
	for _, a := range accounts {
		byEmail[strings.ToLower(a.Email)] = a.Password
	}
	return &Authenticator{
		secret:      []byte(secret),
		ttl:         ttl,
		allowSignup: allowSignup,
		accounts:    byEmail,
		subs:        map[int]func(State){},
	}
}

// Subscribe registers a callback for session changes. The current state is
// delivered immediately so a late subscriber starts from a correct snapshot.
func (a *Authenticator) Subscribe(fn func(State)) (cancel func()) {
	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn
	current := a.state
	a.mu.Unlock()

	fn(current)
	return func() {
		a.mu.Lock()
		delete(a.subs, id)
		a.mu.Unlock()
	}
}

// SignIn validates the credentials and returns a signed session token.
func (a *Authenticator) SignIn(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", apperr.Validationf("email and password are required")
	}

	a.mu.Lock()
	stored, ok := a.accounts[email]
	a.mu.Unlock()
	if !ok || subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return "", apperr.Validationf("invalid credentials")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}

	a.emit(State{Authenticated: true, Identity: email})
	return token, nil
}

// SignUp registers a new staff account when signup is enabled.
func (a *Authenticator) SignUp(email, password string) error {
	if !a.allowSignup {
		return apperr.Validationf("signup is disabled")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return apperr.Validationf("a valid email is required")
	}
	if len(password) < 8 {
		return apperr.Validationf("password must be at least 8 characters")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.accounts[email]; exists {
		return apperr.Validationf("account already exists")
	}
	a.accounts[email] = password
	return nil
}

// SignOut clears the session and emits the signal.
func (a *Authenticator) SignOut() {
	a.emit(State{})
}

// Verify checks a bearer token and returns the identity it names.
func (a *Authenticator) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("session: unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("session: verify token: %w", err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("session: token has no subject")
	}
	return claims.Subject, nil
}

func (a *Authenticator) emit(s State) {
	a.mu.Lock()
	a.state = s
	fns := make([]func(State), 0, len(a.subs))
	for _, fn := range a.subs {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

var _ Signal = (*Authenticator)(nil)
