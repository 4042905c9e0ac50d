// Package message holds the single transient status line shown over the video.
package message

import (
	"sync/atomic"
	"time"
)

// DefaultDuration is how long a message stays visible after it is set.
const DefaultDuration = 10 * time.Second

// Message is a status text and the instant it stops being shown.
type Message struct {
	Text      string    `json:"text"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Valid reports whether the message should still be displayed at now.
func (m Message) Valid(now time.Time) bool {
	return now.Before(m.ExpiresAt)
}

// Remaining returns the validity left at now, or zero once expired.
func (m Message) Remaining(now time.Time) time.Duration {
	if !m.Valid(now) {
		return 0
	}
	return m.ExpiresAt.Sub(now)
}

// Store is a single-slot, last-writer-wins message cell. It is safe for
// concurrent use: every Set replaces the slot in one atomic store, so readers
// never see a text paired with another write's expiry. Writers are not
// serialized; a slow task finishing late overwrites a newer message.
type Store struct {
	slot atomic.Pointer[Message]
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set replaces the current message with text, visible for d from now.
func (s *Store) Set(text string, d time.Duration) {
	s.slot.Store(&Message{Text: text, ExpiresAt: s.now().Add(d)})
}

// Get returns the current text and its remaining validity. ok is false when
// nothing was set or the message has expired.
func (s *Store) Get() (text string, remaining time.Duration, ok bool) {
	m := s.slot.Load()
	if m == nil {
		return "", 0, false
	}
	now := s.now()
	if !m.Valid(now) {
		return "", 0, false
	}
	return m.Text, m.Remaining(now), true
}

// Current returns the raw slot, expired or not. The zero Message means
// nothing was ever set.
func (s *Store) Current() Message {
	if m := s.slot.Load(); m != nil {
		return *m
	}
	return Message{}
}
