// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package timer provides a single-shot-then-periodic interval timer.
package timer

import (
	"sync"
	"time"
)

// Timer fires an action once after a first delay and then periodically.
//
// Each fire runs the action on its own goroutine so a slow action never
// delays the cadence and fires never queue up behind each other. The
// action is responsible for its own concurrency control.
type Timer struct {
	stop chan struct{}
	once sync.Once
}

// Start arms a timer that fires fn after first and every period thereafter.
//
// Parameters:
//   - first: delay before the first fire, zero fires immediately.
//   - period: repeat period after the first fire, must be positive.
//   - fn: nullary action invoked on every fire.
//
// Returns:
//   - *Timer: handle whose Stop prevents further fires.
func Start(first, period time.Duration, fn func()) *Timer {
	t := &Timer{stop: make(chan struct{})}

	go t.loop(first, period, fn)

	return t
}

// Stop prevents all further fires. Safe to call more than once.
//
// Returns:
//   - None.
//
// Behavior:
//   - Fires already dispatched keep running; Stop does not wait for them.
func (t *Timer) Stop() {
	t.once.Do(func() {
		close(t.stop)
	})
}

// loop waits out the first delay and then ticks on the period.
//
// Parameters:
//   - first: initial delay before the first fire.
//   - period: repeat period.
//   - fn: action dispatched on every fire.
//
// Returns:
//   - None.
func (t *Timer) loop(first, period time.Duration, fn func()) {
	delay := time.NewTimer(first)
	defer delay.Stop()

	select {
	case <-t.stop:
		return
	case <-delay.C:
		go fn()
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			go fn()
		}
	}
}
