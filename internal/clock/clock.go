// Package clock is the time source of the playback controller and the rhythm game.
//
// Callbacks run on a goroutine owned by the clock; they must take whatever lock
// protects the state they touch.
package clock

import (
	"sync"
	"time"
)

// Timer is a scheduled callback.
type Timer interface {
	// Stop prevents further firings. It reports whether the timer was still active.
	Stop() bool
}

// Clock schedules one-shot and repeating callbacks.
type Clock interface {
	Now() time.Time
	// AfterFunc runs f once after d.
	AfterFunc(d time.Duration, f func()) Timer
	// Every runs f every d until stopped. d must be positive.
	Every(d time.Duration, f func()) Timer
}

// New returns the wall clock.
func New() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (realClock) Every(d time.Duration, f func()) Timer {
	t := &ticker{
		t:    time.NewTicker(d),
		done: make(chan struct{}),
	}
	go t.run(f)
	return t
}

type ticker struct {
	t    *time.Ticker
	done chan struct{}
	once sync.Once
}

func (t *ticker) run(f func()) {
	for {
		select {
		case <-t.done:
			return
		case <-t.t.C:
			// Stop may race with a tick that was already delivered.
			select {
			case <-t.done:
				return
			default:
			}
			f()
		}
	}
}

func (t *ticker) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.t.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}
