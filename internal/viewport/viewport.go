// Package viewport classifies the browser viewport into the wide paged grid or the
// compact single-card carousel.
package viewport

import (
	"fmt"
	"math"
	"strings"
	"sync"
)

// CompactBreakpoint is the first width that is no longer compact.
const CompactBreakpoint = 768

// Mode is the layout mode derived from the viewport width.
type Mode int

const (
	// Wide is the desktop paged grid.
	Wide Mode = iota
	// Compact is the mobile swipe carousel.
	Compact
)

func (m Mode) String() string {
	switch m {
	case Wide:
		return "wide"
	case Compact:
		return "compact"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses the String form of a mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wide":
		return Wide, nil
	case "compact":
		return Compact, nil
	default:
		return Wide, fmt.Errorf("viewport: unknown mode %q", s)
	}
}

// Classify maps a width to a mode: anything narrower than CompactBreakpoint is compact.
func Classify(width float64) Mode {
	if math.IsNaN(width) || width < CompactBreakpoint {
		return Compact
	}
	return Wide
}

// Classifier re-classifies on every resize and reports mode transitions.
type Classifier struct {
	// deliver serialises classification with callback delivery so transitions
	// reach onChange in the order they were observed.
	deliver sync.Mutex

	mu       sync.Mutex
	mode     Mode
	width    float64
	onChange func(Mode)
	closed   bool
}

// NewClassifier classifies initialWidth eagerly so a mode is known before the first render.
// onChange is not called for the initial classification.
func NewClassifier(initialWidth float64, onChange func(Mode)) *Classifier {
	w := sanitize(initialWidth)
	return &Classifier{
		mode:     Classify(w),
		width:    w,
		onChange: onChange,
	}
}

// Mode returns the current mode.
func (c *Classifier) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Width returns the last observed width.
func (c *Classifier) Width() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width
}

// Observe handles a resize. The callback runs only when the threshold is crossed.
// After Close, Observe is ignored and reports no change.
func (c *Classifier) Observe(width float64) (Mode, bool) {
	c.deliver.Lock()
	defer c.deliver.Unlock()

	c.mu.Lock()
	if c.closed {
		m := c.mode
		c.mu.Unlock()
		return m, false
	}
	w := sanitize(width)
	next := Classify(w)
	c.width = w
	changed := next != c.mode
	c.mode = next
	cb := c.onChange
	c.mu.Unlock()

	if changed && cb != nil {
		cb(next)
	}
	return next, changed
}

// Close releases the resize subscription. It is safe to call more than once.
func (c *Classifier) Close() {
	c.mu.Lock()
	c.closed = true
	c.onChange = nil
	c.mu.Unlock()
}

// Closed reports whether Close has been called.
func (c *Classifier) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func sanitize(w float64) float64 {
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return 0
	}
	return w
}
