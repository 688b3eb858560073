package clock

import (
	"sync"
	"time"
)

// Manual is a Clock that only moves when Advance is called. Due callbacks run
// synchronously inside Advance in chronological order, ties in scheduling order.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*manualTimer
}

type manualTimer struct {
	m      *Manual
	at     time.Time
	period time.Duration
	seq    uint64
	f      func()
}

// NewManual returns a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current manual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc schedules f to run once d after the current manual time.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	return m.schedule(d, 0, f)
}

// Every schedules f every d after the current manual time.
func (m *Manual) Every(d time.Duration, f func()) Timer {
	if d <= 0 {
		panic("clock: non-positive interval for Every")
	}
	return m.schedule(d, d, f)
}

func (m *Manual) schedule(d, period time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{m: m, at: m.now.Add(d), period: period, seq: m.seq, f: f}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves time forward by d, firing every callback that falls due.
// Callbacks may schedule or stop timers; new timers due within d also fire.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.at
		f := next.f
		if next.period > 0 {
			m.seq++
			next.seq = m.seq
			next.at = next.at.Add(next.period)
		} else {
			m.remove(next)
		}
		m.mu.Unlock()

		f()
	}
}

// Pending returns the number of active timers.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *Manual) nextDue(target time.Time) *manualTimer {
	var next *manualTimer
	for _, t := range m.timers {
		if t.at.After(target) {
			continue
		}
		if next == nil || t.at.Before(next.at) || (t.at.Equal(next.at) && t.seq < next.seq) {
			next = t
		}
	}
	return next
}

func (m *Manual) remove(t *manualTimer) bool {
	for i, cur := range m.timers {
		if cur == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return true
		}
	}
	return false
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	return t.m.remove(t)
}
