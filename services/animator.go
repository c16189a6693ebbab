package services

import (
	"math"
	"sync"
	"time"
)

// defaultFrameInterval approximates one animation frame.
const defaultFrameInterval = 16 * time.Millisecond

// CounterAnimator tweens a displayed integer towards a target with an
// ease-out quartic curve, pushing each frame to a sink (the rendering
// callback). Retriggering while a tween is in flight is not ignored: the
// new target always wins and starts from whatever value is currently on
// screen, mid-animation or not.
type CounterAnimator struct {
	sink     func(int)
	interval time.Duration

	mu        sync.Mutex
	displayed int
	gen       uint64
}

// NewCounterAnimator creates an animator that renders through sink.
func NewCounterAnimator(sink func(int)) *CounterAnimator {
	return &CounterAnimator{sink: sink, interval: defaultFrameInterval}
}

// SetFrameInterval overrides the sampling interval. Tests use a tight one.
func (a *CounterAnimator) SetFrameInterval(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.interval = d
}

// Displayed returns the value currently shown.
func (a *CounterAnimator) Displayed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.displayed
}

// Show renders a value immediately, cancelling any tween in flight.
func (a *CounterAnimator) Show(value int) {
	a.mu.Lock()
	a.gen++
	a.displayed = value
	a.mu.Unlock()
	a.sink(value)
}

// AnimateTo tweens from the currently displayed value to target over
// duration. The final frame is exactly target regardless of direction.
func (a *CounterAnimator) AnimateTo(target int, duration time.Duration) {
	a.mu.Lock()
	a.gen++
	gen := a.gen
	start := a.displayed
	interval := a.interval
	a.mu.Unlock()

	if duration <= 0 || start == target {
		a.mu.Lock()
		if a.gen == gen {
			a.displayed = target
		}
		a.mu.Unlock()
		a.sink(target)
		return
	}

	go a.run(gen, start, target, duration, interval)
}

func (a *CounterAnimator) run(gen uint64, start, target int, duration, interval time.Duration) {
	startTime := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for now := range ticker.C {
		progress := float64(now.Sub(startTime)) / float64(duration)
		if progress > 1 {
			progress = 1
		}
		eased := 1 - math.Pow(1-progress, 4)
		current := start + int(math.Floor(float64(target-start)*eased))
		if progress >= 1 {
			current = target
		}

		a.mu.Lock()
		if a.gen != gen {
			// A newer target took over; this tween is dead.
			a.mu.Unlock()
			return
		}
		a.displayed = current
		a.mu.Unlock()
		a.sink(current)

		if progress >= 1 {
			return
		}
	}
}
