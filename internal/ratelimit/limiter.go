// Package ratelimit throttles booking form submissions per email address and
// per client IP.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	ReasonCooldown    = "cooldown"
	ReasonEmailHourly = "email_hourly_limit"
	ReasonIPHourly    = "ip_hourly_limit"
	cleanupInterval   = 5 * time.Minute
	window            = time.Hour
	keyPrefixEmail    = "submit:email:"
	keyPrefixIP       = "submit:ip:"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds submission limits. A zero limit disables that check.
type Config struct {
	Cooldown           time.Duration // Minimum time between submissions from one email
	MaxPerEmailPerHour int
	MaxPerIPPerHour    int

	// Clock for testing (nil uses real time)
	Clock Clock
}

func DefaultConfig() *Config {
	return &Config{
		Cooldown:           30 * time.Second,
		MaxPerEmailPerHour: 5,
		MaxPerIPPerHour:    20,
	}
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string // For logging
}

type entry struct {
	count   int
	firstAt time.Time // First submission in the window
	lastAt  time.Time // Most recent submission (for cooldown)
}

type Limiter struct {
	config *Config
	clock  Clock
	mu     sync.RWMutex
	// Keyed by hash of email or IP
	byEmail map[string]*entry
	byIP    map[string]*entry

	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupOnce   sync.Once
	cleanupWg     sync.WaitGroup
}

// New creates a limiter. A nil cfg uses DefaultConfig.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		config:        cfg,
		clock:         clock,
		byEmail:       make(map[string]*entry),
		byIP:          make(map[string]*entry),
		cleanupCtx:    ctx,
		cleanupCancel: cancel,
	}
}

// Close stops the cleanup goroutine.
func (l *Limiter) Close() {
	l.cleanupCancel()
	l.cleanupWg.Wait()
}

// CheckSubmission reports whether a booking submission is allowed. It does
// not record anything; call RecordSubmission once the submission was
// actually attempted.
func (l *Limiter) CheckSubmission(email, ip string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()
	emailKey := hashKey(keyPrefixEmail, normalizeEmail(email))
	ipKey := hashKey(keyPrefixIP, ip)

	l.mu.RLock()
	defer l.mu.RUnlock()

	if e := l.byEmail[emailKey]; e != nil {
		if elapsed := now.Sub(e.lastAt); l.config.Cooldown > 0 && elapsed < l.config.Cooldown {
			return LimitResult{RetryAfter: l.config.Cooldown - elapsed, Reason: ReasonCooldown}
		}
		if l.config.MaxPerEmailPerHour > 0 && now.Sub(e.firstAt) < window && e.count >= l.config.MaxPerEmailPerHour {
			return LimitResult{RetryAfter: window - now.Sub(e.firstAt), Reason: ReasonEmailHourly}
		}
	}

	if e := l.byIP[ipKey]; e != nil {
		if l.config.MaxPerIPPerHour > 0 && now.Sub(e.firstAt) < window && e.count >= l.config.MaxPerIPPerHour {
			return LimitResult{RetryAfter: window - now.Sub(e.firstAt), Reason: ReasonIPHourly}
		}
	}

	return LimitResult{Allowed: true}
}

// RecordSubmission counts a submission against both the email and the IP.
func (l *Limiter) RecordSubmission(email, ip string) {
	now := l.clock.Now()
	emailKey := hashKey(keyPrefixEmail, normalizeEmail(email))
	ipKey := hashKey(keyPrefixIP, ip)

	l.mu.Lock()
	defer l.mu.Unlock()
	record(l.byEmail, emailKey, now)
	record(l.byIP, ipKey, now)
}

func record(entries map[string]*entry, key string, now time.Time) {
	e := entries[key]
	if e == nil || now.Sub(e.firstAt) >= window {
		entries[key] = &entry{count: 1, firstAt: now, lastAt: now}
		return
	}
	e.count++
	e.lastAt = now
}

func hashKey(prefix, value string) string {
	hash := sha256.Sum256([]byte(value))
	return prefix + hex.EncodeToString(hash[:8])
}

// normalizeEmail lowercases the address so case changes don't reset limits.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (l *Limiter) startCleanup() {
	l.cleanupOnce.Do(func() {
		l.cleanupWg.Add(1)
		go func() {
			defer l.cleanupWg.Done()
			ticker := time.NewTicker(cleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-l.cleanupCtx.Done():
					return
				case <-ticker.C:
					l.cleanup()
				}
			}
		}()
	})
}

func (l *Limiter) cleanup() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, e := range l.byEmail {
		if now.Sub(e.lastAt) > window {
			delete(l.byEmail, k)
		}
	}
	for k, e := range l.byIP {
		if now.Sub(e.lastAt) > window {
			delete(l.byIP, k)
		}
	}
}

// MaskEmail hides most of the local part for logging.
func MaskEmail(email string) string {
	email = normalizeEmail(email)
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return "***"
	}
	if len(local) > 2 {
		return local[:2] + "***@" + domain
	}
	return "***@" + domain
}

// LogExceeded logs a blocked submission with the email masked.
func LogExceeded(logger *zerolog.Logger, email, ip string, result LimitResult) {
	logger.Warn().
		Str("event", "rate_limit_exceeded").
		Str("email", MaskEmail(email)).
		Str("ip", ip).
		Str("reason", result.Reason).
		Dur("retry_after", result.RetryAfter).
		Msg("Booking submission rate limited")
}
