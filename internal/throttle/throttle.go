// Package throttle locks an account after repeated failed logins.
//
// State is per account identifier only, kept in memory and expired lazily when it is checked.
package throttle

import (
	"math"
	"sync"
	"time"
)

const (
	DefaultMaxFailures = 10
	DefaultWindow      = 5 * time.Minute
)

// LockStatus is the result of CheckLock.
type LockStatus struct {
	Locked    bool
	Remaining time.Duration
}

// RemainingSeconds returns Remaining rounded up to whole seconds.
func (s LockStatus) RemainingSeconds() int {
	if s.Remaining <= 0 {
		return 0
	}
	return int(math.Ceil(s.Remaining.Seconds()))
}

type record struct {
	failures    int
	lastFailure time.Time
}

// Throttle counts consecutive login failures per account.
type Throttle struct {
	mu          sync.Mutex
	records     map[string]record
	maxFailures int
	window      time.Duration
	nowF        func() time.Time
}

// New returns a Throttle. Non-positive arguments use DefaultMaxFailures and DefaultWindow.
func New(maxFailures int, window time.Duration) *Throttle {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Throttle{
		records:     make(map[string]record),
		maxFailures: maxFailures,
		window:      window,
		nowF:        time.Now,
	}
}

// MaxFailures returns the configured lock threshold.
func (t *Throttle) MaxFailures() int {
	return t.maxFailures
}

// RecordFailure counts a failed attempt and returns the new failure count.
// A record whose window already elapsed starts over at 1.
func (t *Throttle) RecordFailure(accountID string) int {
	now := t.nowF()
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[accountID]
	if ok && now.Sub(rec.lastFailure) >= t.window {
		rec = record{}
	}
	rec.failures++
	rec.lastFailure = now
	t.records[accountID] = rec
	return rec.failures
}

// CheckLock reports whether accountID is locked. An expired record is deleted.
func (t *Throttle) CheckLock(accountID string) LockStatus {
	now := t.nowF()
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[accountID]
	if !ok {
		return LockStatus{}
	}
	elapsed := now.Sub(rec.lastFailure)
	if elapsed >= t.window {
		delete(t.records, accountID)
		return LockStatus{}
	}
	if rec.failures < t.maxFailures {
		return LockStatus{}
	}
	return LockStatus{Locked: true, Remaining: t.window - elapsed}
}

// Reset clears the failure record after a successful login.
func (t *Throttle) Reset(accountID string) {
	t.mu.Lock()
	delete(t.records, accountID)
	t.mu.Unlock()
}

// Failures returns the current failure count for accountID (0 if none).
func (t *Throttle) Failures(accountID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.records[accountID].failures
}
