package health

import (
	"sync"
	"time"
)

// TTL is shared by recipient blocks and admin alert throttling.
const TTL = 15 * time.Minute

// CodeRecipientNotAllowed is the Cloud API error code for a recipient that
// is not in the sender's allowed list. Only this code blocks a recipient.
const CodeRecipientNotAllowed = 131030

type BlockEntry struct {
	Recipient string
	ErrorCode int
	BlockedAt time.Time
}

type AdminAlertEntry struct {
	Recipient      string
	LastNotifiedAt time.Time
}

// Tracker remembers which recipients are temporarily undeliverable and when
// the admin was last told about them. Callers pass the clock in.
type Tracker struct {
	mu      sync.Mutex
	blocked map[string]BlockEntry
	alerted map[string]AdminAlertEntry
	unknown map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{
		blocked: make(map[string]BlockEntry),
		alerted: make(map[string]AdminAlertEntry),
		unknown: make(map[string]struct{}),
	}
}

// IsBlocked evicts an expired entry as a side effect.
func (t *Tracker) IsBlocked(recipient string, now time.Time) bool {
	_, ok := t.Blocked(recipient, now)
	return ok
}

// Blocked returns the live block entry for recipient, if any.
func (t *Tracker) Blocked(recipient string, now time.Time) (BlockEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.blocked[recipient]
	if !ok {
		return BlockEntry{}, false
	}
	if now.Sub(e.BlockedAt) >= TTL {
		delete(t.blocked, recipient)
		return BlockEntry{}, false
	}
	return e, true
}

// RecordFailure blocks recipient when code is CodeRecipientNotAllowed and
// reports whether it did. Other codes are ignored.
func (t *Tracker) RecordFailure(recipient string, code int, now time.Time) bool {
	if code != CodeRecipientNotAllowed {
		return false
	}
	t.mu.Lock()
	t.blocked[recipient] = BlockEntry{Recipient: recipient, ErrorCode: code, BlockedAt: now}
	t.mu.Unlock()
	return true
}

// ShouldAlertAdmin does not record anything; see RecordAlert and ClaimAlert.
func (t *Tracker) ShouldAlertAdmin(recipient string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shouldAlert(recipient, now)
}

func (t *Tracker) shouldAlert(recipient string, now time.Time) bool {
	e, ok := t.alerted[recipient]
	return !ok || now.Sub(e.LastNotifiedAt) >= TTL
}

func (t *Tracker) RecordAlert(recipient string, now time.Time) {
	t.mu.Lock()
	t.alerted[recipient] = AdminAlertEntry{Recipient: recipient, LastNotifiedAt: now}
	t.mu.Unlock()
}

// ClaimAlert is ShouldAlertAdmin followed by RecordAlert under one lock, so
// two concurrent failures for the same recipient yield a single alert.
func (t *Tracker) ClaimAlert(recipient string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.shouldAlert(recipient, now) {
		return false
	}
	t.alerted[recipient] = AdminAlertEntry{Recipient: recipient, LastNotifiedAt: now}
	return true
}

// ForgetAlert drops a claim whose alert could not be delivered.
func (t *Tracker) ForgetAlert(recipient string, claimedAt time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.alerted[recipient]; ok && e.LastNotifiedAt.Equal(claimedAt) {
		delete(t.alerted, recipient)
	}
}

// MarkUnknownSender returns true only the first time phone is seen.
func (t *Tracker) MarkUnknownSender(phone string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.unknown[phone]; ok {
		return false
	}
	t.unknown[phone] = struct{}{}
	return true
}

// Sweep drops expired block and alert entries and returns how many went.
// The unknown-sender set is never swept.
func (t *Tracker) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for k, e := range t.blocked {
		if now.Sub(e.BlockedAt) >= TTL {
			delete(t.blocked, k)
			n++
		}
	}
	for k, e := range t.alerted {
		if now.Sub(e.LastNotifiedAt) >= TTL {
			delete(t.alerted, k)
			n++
		}
	}
	return n
}
