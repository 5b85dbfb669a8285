// Package otp implements the short-lived email verification codes that
// gate parent registration. Codes live in process memory only: a lost
// code simply means requesting a new one.
package otp

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"sync"
	"time"
)

// DefaultTTL is how long a generated code stays valid.
const DefaultTTL = 10 * time.Minute

type record struct {
	code      string
	expiresAt time.Time
	verified  bool
}

// Store holds at most one live verification code per email address.
// Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	records map[string]*record
	ttl     time.Duration
	now     func() time.Time
}

// NewStore creates a store whose codes expire after ttl.
// A non-positive ttl falls back to DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		records: make(map[string]*record),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Generate produces a fresh 6-digit code for the email and returns it for
// delivery. Any previous code for the same email is overwritten, so only
// the latest code can verify.
func (s *Store) Generate(email string) string {
	code := randomCode()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[email] = &record{
		code:      code,
		expiresAt: s.now().Add(s.ttl),
		verified:  false,
	}

	return code
}

// Verify checks a submitted code. It returns false for unknown emails,
// expired codes (which are purged on detection), and mismatches. On a
// match it marks the record verified and returns true; repeated calls
// with the correct code keep returning true until the record is cleared
// or expires.
func (s *Store) Verify(email, submitted string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[email]
	if !ok {
		return false
	}

	if s.now().After(rec.expiresAt) {
		delete(s.records, email)
		return false
	}

	if rec.code != submitted {
		return false
	}

	rec.verified = true
	return true
}

// IsVerified reports whether the email holds a live, verified record.
func (s *Store) IsVerified(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[email]
	if !ok {
		return false
	}
	if s.now().After(rec.expiresAt) {
		delete(s.records, email)
		return false
	}
	return rec.verified
}

// Clear unconditionally deletes the record for an email. Called after the
// gated action (registration) completes so the verification can't be
// reused.
func (s *Store) Clear(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, email)
}

// randomCode samples uniformly from 100000-999999.
func randomCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand only fails if the OS entropy source is broken
		panic("otp: failed to read random source: " + err.Error())
	}
	return strconv.FormatInt(n.Int64()+100000, 10)
}
