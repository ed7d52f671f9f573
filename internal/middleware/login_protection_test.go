package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestProtection() *LoginProtection {
	return NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:       100, // effectively unlimited for these tests
		IPBurst:           100,
		MaxFailedAttempts: 3,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})
}

func TestLoginProtection_LockAfterMaxFailures(t *testing.T) {
	lp := newTestProtection()

	for i := 0; i < 2; i++ {
		if locked, _ := lp.RecordFailedAttempt("a@example.com"); locked {
			t.Fatalf("locked too early at attempt %d", i+1)
		}
	}

	locked, duration := lp.RecordFailedAttempt("a@example.com")
	if !locked {
		t.Fatal("third failure should lock the account")
	}
	if duration != time.Minute {
		t.Errorf("lock duration = %v, want 1m", duration)
	}

	isLocked, remaining := lp.IsAccountLocked("a@example.com")
	if !isLocked {
		t.Fatal("account should be locked")
	}
	if remaining <= 0 || remaining > time.Minute {
		t.Errorf("remaining = %v", remaining)
	}
}

func TestLoginProtection_LockoutDoubles(t *testing.T) {
	lp := newTestProtection()

	for i := 0; i < 3; i++ {
		lp.RecordFailedAttempt("b@example.com")
	}
	for i := 0; i < 2; i++ {
		lp.RecordFailedAttempt("b@example.com")
	}
	locked, duration := lp.RecordFailedAttempt("b@example.com")
	if !locked {
		t.Fatal("second lockout expected")
	}
	if duration != 2*time.Minute {
		t.Errorf("second lockout = %v, want 2m", duration)
	}
}

func TestLoginProtection_SuccessClearsFailures(t *testing.T) {
	lp := newTestProtection()

	lp.RecordFailedAttempt("c@example.com")
	lp.RecordFailedAttempt("c@example.com")
	lp.RecordSuccessfulLogin("c@example.com")

	for i := 0; i < 2; i++ {
		if locked, _ := lp.RecordFailedAttempt("c@example.com"); locked {
			t.Fatal("counter should have been reset by successful login")
		}
	}
}

func TestLoginProtection_AccountsAreIndependent(t *testing.T) {
	lp := newTestProtection()

	for i := 0; i < 3; i++ {
		lp.RecordFailedAttempt("victim@example.com")
	}

	if locked, _ := lp.IsAccountLocked("bystander@example.com"); locked {
		t.Error("unrelated account should not be locked")
	}
}

func TestLoginProtection_Middleware(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:       1,
		IPBurst:           2,
		MaxFailedAttempts: 5,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})

	h := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/login", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, w.Code)
		}
	}

	// Burst exhausted.
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	h.ServeHTTP(w, r)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}

	// A different IP has its own limiter.
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/login", nil)
	r.RemoteAddr = "10.0.0.2:1234"
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("other IP status = %d, want 200", w.Code)
	}
}
