package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frameRecorder struct {
	mu     sync.Mutex
	frames []int
}

func (f *frameRecorder) sink(v int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, v)
}

func (f *frameRecorder) last() (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return 0, false
	}
	return f.frames[len(f.frames)-1], true
}

func (f *frameRecorder) all() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.frames))
	copy(out, f.frames)
	return out
}

func TestCounterAnimatorConverges(t *testing.T) {
	rec := &frameRecorder{}
	a := NewCounterAnimator(rec.sink)
	a.SetFrameInterval(time.Millisecond)

	a.Show(10)
	a.AnimateTo(25, 50*time.Millisecond)

	require.Eventually(t, func() bool {
		return a.Displayed() == 25
	}, time.Second, 5*time.Millisecond)

	last, ok := rec.last()
	require.True(t, ok)
	assert.Equal(t, 25, last, "final frame lands exactly on the target")

	// Frames only ever move from start towards target.
	for _, v := range rec.all() {
		assert.GreaterOrEqual(t, v, 10)
		assert.LessOrEqual(t, v, 25)
	}
}

func TestCounterAnimatorAnimatesDown(t *testing.T) {
	a := NewCounterAnimator(func(int) {})
	a.SetFrameInterval(time.Millisecond)

	a.Show(100)
	a.AnimateTo(40, 30*time.Millisecond)

	require.Eventually(t, func() bool {
		return a.Displayed() == 40
	}, time.Second, 5*time.Millisecond)
}

func TestCounterAnimatorRetrigger(t *testing.T) {
	a := NewCounterAnimator(func(int) {})
	a.SetFrameInterval(time.Millisecond)

	a.Show(0)
	a.AnimateTo(1000, 10*time.Second)
	time.Sleep(10 * time.Millisecond)

	// The new target takes over mid-flight and wins.
	a.AnimateTo(5, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		return a.Displayed() == 5
	}, time.Second, 5*time.Millisecond)

	// The dead tween must not resurface.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 5, a.Displayed())
}

func TestCounterAnimatorImmediate(t *testing.T) {
	t.Run("zero duration renders at once", func(t *testing.T) {
		rec := &frameRecorder{}
		a := NewCounterAnimator(rec.sink)
		a.AnimateTo(7, 0)
		assert.Equal(t, 7, a.Displayed())
	})

	t.Run("already at target", func(t *testing.T) {
		a := NewCounterAnimator(func(int) {})
		a.Show(3)
		a.AnimateTo(3, time.Second)
		assert.Equal(t, 3, a.Displayed())
	})

	t.Run("show cancels a tween", func(t *testing.T) {
		a := NewCounterAnimator(func(int) {})
		a.SetFrameInterval(time.Millisecond)
		a.AnimateTo(1000, 10*time.Second)
		a.Show(42)
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, 42, a.Displayed())
	})
}
