package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{fn: f}
	c.timers = append(c.timers, t)
	return t
}

// fire runs timer i regardless of Stop, like a timer that raced its cancellation.
func (c *fakeClock) fire(i int) {
	c.mu.Lock()
	t := c.timers[i]
	c.mu.Unlock()
	t.fn()
}

func newTestSlot() (*Slot, *fakeClock) {
	clock := &fakeClock{}
	return NewSlot(5*time.Second, WithAfterFunc(clock.AfterFunc)), clock
}

func TestSlotShowAndExpire(t *testing.T) {
	s, clock := newTestSlot()
	assert.Equal(t, Idle, s.State())

	s.Error("boom")
	msg, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, LevelError, msg.Level)
	assert.Equal(t, "boom", msg.Text)
	assert.Equal(t, Showing, s.State())

	clock.fire(0)
	assert.Equal(t, Idle, s.State())
}

func TestSlotReplaceCancelsPreviousTimer(t *testing.T) {
	s, clock := newTestSlot()

	s.Error("first")
	s.Success("second")

	require.Len(t, clock.timers, 2)
	assert.True(t, clock.timers[0].stopped, "first timer must be cancelled")

	clock.fire(0)
	msg, ok := s.Current()
	require.True(t, ok, "stale timer must not clear the newer message")
	assert.Equal(t, "second", msg.Text)

	clock.fire(1)
	assert.Equal(t, Idle, s.State())
}

func TestSlotDismissCancelsTimer(t *testing.T) {
	s, clock := newTestSlot()

	s.Error("first")
	s.Dismiss()
	assert.Equal(t, Idle, s.State())
	assert.True(t, clock.timers[0].stopped)

	s.Success("later")
	clock.fire(0)

	msg, ok := s.Current()
	require.True(t, ok, "timer of a dismissed message must not clear a later one")
	assert.Equal(t, "later", msg.Text)
}

func TestSlotDismissWhenIdle(t *testing.T) {
	calls := 0
	s := NewSlot(time.Second, WithOnChange(func(*Message) { calls++ }))
	s.Dismiss()
	assert.Equal(t, 0, calls)
}

func TestSlotOnChange(t *testing.T) {
	clock := &fakeClock{}
	var seen []string
	s := NewSlot(time.Second, WithAfterFunc(clock.AfterFunc), WithOnChange(func(m *Message) {
		if m == nil {
			seen = append(seen, "<clear>")
			return
		}
		seen = append(seen, m.Text)
	}))

	s.Success("saved")
	clock.fire(0)

	assert.Equal(t, []string{"saved", "<clear>"}, seen)
}

func TestSlotRealTimer(t *testing.T) {
	s := NewSlot(10 * time.Millisecond)
	s.Error("short lived")
	assert.Eventually(t, func() bool { return s.State() == Idle }, time.Second, 5*time.Millisecond)
}
