// Package telemetry accumulates keystroke counts between analysis runs.
package telemetry

import (
	"sync"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

// BackspaceKey is the key name counted as a correction.
const BackspaceKey = "Backspace"

// Collector counts keys and backspaces. It is safe for concurrent use and
// never blocks beyond a short critical section.
type Collector struct {
	mu      sync.Mutex
	enabled bool
	sample  model.TypingSample
}

// NewCollector returns a collector with collection enabled or disabled.
func NewCollector(enabled bool) *Collector {
	return &Collector{enabled: enabled}
}

// OnKey records one key event. Events are ignored while collection is disabled.
func (c *Collector) OnKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	c.sample.Keys++
	if key == BackspaceKey {
		c.sample.Backspaces++
	}
}

// Drain returns the current counts and resets them to zero.
func (c *Collector) Drain() model.TypingSample {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.sample
	c.sample = model.TypingSample{}
	return out
}

// Peek returns the current counts without resetting them.
func (c *Collector) Peek() model.TypingSample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sample
}

// SetEnabled gates collection. Disabling discards any pending counts.
func (c *Collector) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
	if !enabled {
		c.sample = model.TypingSample{}
	}
}

// Enabled reports whether key events are being counted.
func (c *Collector) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}
