// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginProtection provides combined IP rate limiting and account lockout
// protection for the login endpoint.
type LoginProtection struct {
	mu         sync.Mutex
	ipLimiters map[string]*rate.Limiter
	attempts   map[string]*loginAttempt

	ipRateLimit     rate.Limit
	ipBurst         int
	maxFailed       int
	lockoutDuration time.Duration
	attemptWindow   time.Duration
}

// loginAttempt tracks failed login attempts for an account.
type loginAttempt struct {
	count       int
	firstFailed time.Time
	lockedUntil time.Time
	lockouts    int // lockout duration doubles with each lockout
}

// LoginProtectionConfig holds configuration for login protection.
type LoginProtectionConfig struct {
	// IPRateLimit is requests per second per IP.
	IPRateLimit float64
	// IPBurst is the maximum burst size for IP rate limiting.
	IPBurst int
	// MaxFailedAttempts before account lockout.
	MaxFailedAttempts int
	// LockoutDuration is the base lockout time.
	LockoutDuration time.Duration
	// AttemptWindow is the time window for counting failed attempts.
	AttemptWindow time.Duration
}

// DefaultLoginProtectionConfig returns sensible defaults.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5, // 1 request per 2 seconds
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

// NewLoginProtection creates a new login protection instance and starts
// its cleanup loop.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = 0.5
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = 5
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 15 * time.Minute
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = 15 * time.Minute
	}

	lp := &LoginProtection{
		ipLimiters:      make(map[string]*rate.Limiter),
		attempts:        make(map[string]*loginAttempt),
		ipRateLimit:     rate.Limit(cfg.IPRateLimit),
		ipBurst:         cfg.IPBurst,
		maxFailed:       cfg.MaxFailedAttempts,
		lockoutDuration: cfg.LockoutDuration,
		attemptWindow:   cfg.AttemptWindow,
	}

	go lp.cleanup()

	return lp
}

// Middleware rate-limits requests per client IP. Apply to POST /login.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !lp.limiterFor(ip).Allow() {
				slog.Warn("login rate limit exceeded", "ip", ip)
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IsAccountLocked reports whether the account is locked and for how much
// longer.
func (lp *LoginProtection) IsAccountLocked(email string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	a, ok := lp.attempts[email]
	if !ok {
		return false, 0
	}
	remaining := time.Until(a.lockedUntil)
	if remaining <= 0 {
		return false, 0
	}
	return true, remaining
}

// RecordFailedAttempt records a failed login. Returns true with the
// lockout duration when the account becomes locked.
func (lp *LoginProtection) RecordFailedAttempt(email string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	now := time.Now()
	a, ok := lp.attempts[email]
	if !ok || now.Sub(a.firstFailed) > lp.attemptWindow {
		a = &loginAttempt{firstFailed: now}
		if ok {
			a.lockouts = lp.attempts[email].lockouts
		}
		lp.attempts[email] = a
	}

	a.count++
	if a.count < lp.maxFailed {
		return false, 0
	}

	// Exponential backoff: double the lockout each time.
	duration := lp.lockoutDuration << a.lockouts
	a.lockouts++
	a.lockedUntil = now.Add(duration)
	a.count = 0
	a.firstFailed = now

	slog.Warn("account locked after repeated login failures",
		"email", email,
		"duration", duration.String(),
	)
	return true, duration
}

// RecordSuccessfulLogin clears failure tracking for the account.
func (lp *LoginProtection) RecordSuccessfulLogin(email string) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	delete(lp.attempts, email)
}

// limiterFor returns (or creates) the limiter for an IP.
func (lp *LoginProtection) limiterFor(ip string) *rate.Limiter {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	l, ok := lp.ipLimiters[ip]
	if !ok {
		l = rate.NewLimiter(lp.ipRateLimit, lp.ipBurst)
		lp.ipLimiters[ip] = l
	}
	return l
}

// cleanup periodically drops stale limiters and expired lockouts.
func (lp *LoginProtection) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		lp.mu.Lock()
		now := time.Now()
		for email, a := range lp.attempts {
			if now.After(a.lockedUntil) && now.Sub(a.firstFailed) > lp.attemptWindow {
				delete(lp.attempts, email)
			}
		}
		// Limiters are cheap to rebuild; drop them all.
		lp.ipLimiters = make(map[string]*rate.Limiter)
		lp.mu.Unlock()
	}
}

// clientIP extracts the client IP from the request. RemoteAddr is already
// rewritten by the chi RealIP middleware.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
