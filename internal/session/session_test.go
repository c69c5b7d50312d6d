package session

import (
	"testing"
	"time"

	"github.com/corvand/remedy/internal/apperr"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func staff() []Account {
	return []Account{{Email: "admin@remedy.test", Password: "s3cret-pass"}}
}

func newAuth(t *testing.T) *Authenticator {
	t.Helper()
	return NewAuthenticator(testSecret, time.Hour, staff(), false)
}

func TestSignInIssuesVerifiableToken(t *testing.T) {
	a := newAuth(t)
	token, err := a.SignIn("admin@remedy.test", "s3cret-pass")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	identity, err := a.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity != "admin@remedy.test" {
		t.Errorf("identity = %q", identity)
	}
}

func TestSignInEmailCaseInsensitive(t *testing.T) {
	a := newAuth(t)
	if _, err := a.SignIn("Admin@Remedy.Test", "s3cret-pass"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	a := newAuth(t)
	for _, tc := range []struct{ email, password string }{
		{"admin@remedy.test", "wrong"},
		{"nobody@remedy.test", "s3cret-pass"},
		{"", "s3cret-pass"},
		{"admin@remedy.test", ""},
	} {
		if _, err := a.SignIn(tc.email, tc.password); !apperr.IsValidation(err) {
			t.Errorf("SignIn(%q, %q) err = %v, want ValidationError", tc.email, tc.password, err)
		}
	}
}

func TestVerifyRejectsForeignToken(t *testing.T) {
	a := newAuth(t)
	other := NewAuthenticator("another-secret-key-of-length", time.Hour, staff(), false)
	token, err := other.SignIn("admin@remedy.test", "s3cret-pass")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if _, err := a.Verify(token); err == nil {
		t.Error("token signed with a different secret accepted")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	a := NewAuthenticator(testSecret, -time.Minute, staff(), false)
	token, err := a.SignIn("admin@remedy.test", "s3cret-pass")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if _, err := a.Verify(token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestSignUpDisabled(t *testing.T) {
	a := newAuth(t)
	if err := a.SignUp("new@remedy.test", "longenough"); !apperr.IsValidation(err) {
		t.Errorf("err = %v, want ValidationError", err)
	}
}

func TestSignUpThenSignIn(t *testing.T) {
	a := NewAuthenticator(testSecret, time.Hour, nil, true)
	if err := a.SignUp("new@remedy.test", "longenough"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if _, err := a.SignIn("new@remedy.test", "longenough"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if err := a.SignUp("new@remedy.test", "longenough"); !apperr.IsValidation(err) {
		t.Errorf("duplicate signup err = %v, want ValidationError", err)
	}
}

func TestSignUpValidation(t *testing.T) {
	a := NewAuthenticator(testSecret, time.Hour, nil, true)
	if err := a.SignUp("not-an-email", "longenough"); !apperr.IsValidation(err) {
		t.Errorf("bad email err = %v", err)
	}
	if err := a.SignUp("new@remedy.test", "short"); !apperr.IsValidation(err) {
		t.Errorf("short password err = %v", err)
	}
}

func TestGateTracksSignal(t *testing.T) {
	a := newAuth(t)
	g := NewGate(a)
	defer g.Close()

	if g.Authenticated() {
		t.Fatal("gate authenticated before sign in")
	}
	if _, err := a.SignIn("admin@remedy.test", "s3cret-pass"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if !g.Authenticated() || g.Identity() != "admin@remedy.test" {
		t.Errorf("gate = %+v after sign in", g.Snapshot())
	}

	a.SignOut()
	if g.Authenticated() || g.Identity() != "" {
		t.Errorf("gate = %+v after sign out", g.Snapshot())
	}
}

func TestGateLateSubscriberSeesCurrentState(t *testing.T) {
	a := newAuth(t)
	if _, err := a.SignIn("admin@remedy.test", "s3cret-pass"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	g := NewGate(a)
	defer g.Close()
	if !g.Authenticated() {
		t.Error("late gate did not receive the current state")
	}
}

func TestGateCloseStopsUpdates(t *testing.T) {
	a := newAuth(t)
	g := NewGate(a)
	g.Close()

	if _, err := a.SignIn("admin@remedy.test", "s3cret-pass"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if g.Authenticated() {
		t.Error("closed gate still received updates")
	}
}
