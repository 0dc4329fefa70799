package carousel

import (
	"math"
	"sync"
)

// Probe holds the last card width measured by the browser. A zero or invalid
// report means no card is currently rendered.
type Probe struct {
	mu    sync.RWMutex
	width float64
}

// Report records a measurement.
func (p *Probe) Report(width float64) {
	if math.IsNaN(width) || math.IsInf(width, 0) || width < 0 {
		width = 0
	}
	p.mu.Lock()
	p.width = width
	p.mu.Unlock()
}

// CardWidth implements Measurer.
func (p *Probe) CardWidth() (float64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.width, p.width > 0
}
