// Package notify holds the single transient message shown to the user.
//
// The slot is a small state machine: idle, or showing one message with one
// pending clear timer. Showing a new message replaces the old one and its timer;
// dismissing clears the message and cancels the timer.
package notify

import (
	"sync"
	"time"
)

// Level distinguishes error messages from success messages.
type Level string

const (
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

// State of the slot.
type State int

const (
	Idle State = iota
	Showing
)

func (s State) String() string {
	if s == Showing {
		return "showing"
	}
	return "idle"
}

// Message is the content of the slot.
type Message struct {
	Level Level     `json:"level"`
	Text  string    `json:"text"`
	At    time.Time `json:"at"`
}

// Timer is a cancellable deferred callback.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Slot is safe for concurrent use.
type Slot struct {
	mu         sync.Mutex
	ttl        time.Duration
	afterFunc  AfterFunc
	now        func() time.Time
	current    *Message
	timer      Timer
	generation uint64
	onChange   func(*Message)
}

// Option configures a Slot.
type Option func(*Slot)

// WithAfterFunc replaces the timer factory, e.g. with a fake in tests.
func WithAfterFunc(f AfterFunc) Option {
	return func(s *Slot) { s.afterFunc = f }
}

// WithNow replaces the timestamp source.
func WithNow(now func() time.Time) Option {
	return func(s *Slot) { s.now = now }
}

// WithOnChange registers a callback invoked, outside the lock, after every change.
func WithOnChange(f func(*Message)) Option {
	return func(s *Slot) { s.onChange = f }
}

// NewSlot returns an idle slot whose messages clear after ttl.
func NewSlot(ttl time.Duration, opts ...Option) *Slot {
	s := &Slot{
		ttl:       ttl,
		afterFunc: realAfterFunc,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Show replaces the current message and restarts the clear timer.
func (s *Slot) Show(level Level, text string) Message {
	s.mu.Lock()
	s.stopLocked()
	s.generation++
	gen := s.generation
	msg := Message{Level: level, Text: text, At: s.now()}
	s.current = &msg
	if s.ttl > 0 {
		s.timer = s.afterFunc(s.ttl, func() { s.expire(gen) })
	}
	s.mu.Unlock()

	s.notify(&msg)
	return msg
}

// Error shows an error message.
func (s *Slot) Error(text string) Message {
	return s.Show(LevelError, text)
}

// Success shows a success message.
func (s *Slot) Success(text string) Message {
	return s.Show(LevelSuccess, text)
}

// Dismiss clears the message early and cancels its timer.
func (s *Slot) Dismiss() {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}
	s.stopLocked()
	s.generation++
	s.current = nil
	s.mu.Unlock()

	s.notify(nil)
}

// Current returns the shown message, if any.
func (s *Slot) Current() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Message{}, false
	}
	return *s.current, true
}

// State reports whether a message is showing.
func (s *Slot) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Idle
	}
	return Showing
}

// expire runs on the timer goroutine. A stale generation is ignored even if Stop lost the race.
func (s *Slot) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.current == nil {
		s.mu.Unlock()
		return
	}
	s.current = nil
	s.timer = nil
	s.mu.Unlock()

	s.notify(nil)
}

func (s *Slot) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Slot) notify(msg *Message) {
	if s.onChange != nil {
		s.onChange(msg)
	}
}
