package gesture

import "time"

// DefaultCooldown is the minimum interval between two accepted pinch triggers.
const DefaultCooldown = 500 * time.Millisecond

// Edge detects rising edges of the pinch state across frames.
// The zero value starts in the not-pinching state.
type Edge struct {
	previous bool
}

// Update records the current pinch state and reports whether it is a
// transition from not-pinching to pinching. It must be called once per frame,
// whether or not anything is triggered.
func (e *Edge) Update(current bool) bool {
	rising := current && !e.previous
	e.previous = current
	return rising
}

// Pinching reports the state recorded by the last Update.
func (e *Edge) Pinching() bool {
	return e.previous
}

// Cooldown throttles triggers globally, independent of which region fired.
// Before the first Mark it is always ready.
type Cooldown struct {
	period time.Duration
	last   time.Time
	marked bool
}

// NewCooldown creates a Cooldown. A non-positive period selects DefaultCooldown.
func NewCooldown(period time.Duration) *Cooldown {
	if period <= 0 {
		period = DefaultCooldown
	}
	return &Cooldown{period: period}
}

// Ready reports whether strictly more than the period has passed since the
// last accepted trigger.
func (c *Cooldown) Ready(now time.Time) bool {
	return !c.marked || now.Sub(c.last) > c.period
}

// Mark records an accepted trigger at now.
func (c *Cooldown) Mark(now time.Time) {
	c.last = now
	c.marked = true
}

// Period returns the cooldown period.
func (c *Cooldown) Period() time.Duration {
	return c.period
}
