package simutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimerCountsDownAndFloorsAtZero(t *testing.T) {
	timer := NewTimer(1)
	assert.True(t, timer.Active())

	assert.False(t, timer.Tick(0.4))
	assert.InDelta(t, 0.6, timer.Remaining, 1e-9)

	assert.True(t, timer.Tick(5))
	assert.Equal(t, 0.0, timer.Remaining)
	assert.True(t, timer.Expired())

	assert.False(t, timer.Tick(1), "expired timer must not report expiry twice")
	assert.Equal(t, 0.0, timer.Remaining)
}

func TestTimerResetAndClear(t *testing.T) {
	var timer Timer
	assert.True(t, timer.Expired(), "zero value should be expired")

	timer.Reset(-3)
	assert.Equal(t, 0.0, timer.Remaining)

	timer.Reset(2)
	timer.Tick(-1)
	assert.Equal(t, 2.0, timer.Remaining, "negative dt must not add time")

	timer.Clear()
	assert.True(t, timer.Expired())
}

func TestStopwatchExceeds(t *testing.T) {
	var sw Stopwatch
	sw.Add(1.5)
	sw.Add(-4)
	sw.Add(0.6)
	assert.True(t, sw.Exceeds(2))
	sw.Reset()
	assert.False(t, sw.Exceeds(0))
}
