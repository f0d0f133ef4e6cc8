// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTimer_FirstDelayThenPeriodic verifies the single-shot-then-periodic shape.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestTimer_FirstDelayThenPeriodic(t *testing.T) {
	fires := make(chan time.Time, 16)
	started := time.Now()

	tm := Start(80*time.Millisecond, 50*time.Millisecond, func() {
		fires <- time.Now()
	})
	defer tm.Stop()

	// The first fire waits out the initial delay.
	first := <-fires
	require.GreaterOrEqual(t, first.Sub(started), 60*time.Millisecond)

	// Two more fires arrive on the period cadence.
	for i := 0; i < 2; i++ {
		select {
		case <-fires:
		case <-time.After(time.Second):
			t.Fatal("periodic fire did not arrive")
		}
	}
}

// TestTimer_ImmediateFirstFire verifies a zero first delay fires right away.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestTimer_ImmediateFirstFire(t *testing.T) {
	fires := make(chan time.Time, 16)
	started := time.Now()

	tm := Start(0, time.Hour, func() {
		fires <- time.Now()
	})
	defer tm.Stop()

	select {
	case first := <-fires:
		assert.Less(t, first.Sub(started), 200*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("immediate fire did not arrive")
	}
}

// TestTimer_StopPreventsFires verifies Stop cancels all future fires.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestTimer_StopPreventsFires(t *testing.T) {
	var count atomic.Int32

	tm := Start(60*time.Millisecond, 60*time.Millisecond, func() {
		count.Add(1)
	})

	tm.Stop()
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, int32(0), count.Load())
}

// TestTimer_StopIdempotent verifies repeated Stop calls are safe.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestTimer_StopIdempotent(t *testing.T) {
	tm := Start(10*time.Millisecond, 10*time.Millisecond, func() {})

	tm.Stop()
	tm.Stop()
	tm.Stop()
}

// TestTimer_SlowActionKeepsCadence verifies fires never queue behind a
// slow action.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestTimer_SlowActionKeepsCadence(t *testing.T) {
	var count atomic.Int32

	tm := Start(0, 50*time.Millisecond, func() {
		count.Add(1)
		// Longer than the period, the next fire must still happen.
		time.Sleep(150 * time.Millisecond)
	})
	defer tm.Stop()

	time.Sleep(180 * time.Millisecond)

	// An action outliving the period does not suppress subsequent fires.
	assert.GreaterOrEqual(t, count.Load(), int32(3))
}
