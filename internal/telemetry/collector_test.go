package telemetry

import (
	"sync"
	"testing"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

func TestCollectorCountsBackspaces(t *testing.T) {
	c := NewCollector(true)
	for _, k := range []string{"h", "e", "Backspace", "y", "Backspace"} {
		c.OnKey(k)
	}
	got := c.Drain()
	if got.Keys != 5 || got.Backspaces != 2 {
		t.Fatalf("unexpected sample: %+v", got)
	}
}

func TestCollectorDrainIdempotent(t *testing.T) {
	c := NewCollector(true)
	c.OnKey("a")
	c.Drain()
	if got := c.Drain(); got != (model.TypingSample{}) {
		t.Fatalf("expected empty second drain, got %+v", got)
	}
}

func TestCollectorDisabled(t *testing.T) {
	c := NewCollector(false)
	c.OnKey("a")
	c.OnKey("Backspace")
	if got := c.Peek(); got != (model.TypingSample{}) {
		t.Fatalf("disabled collector accumulated: %+v", got)
	}

	c.SetEnabled(true)
	c.OnKey("a")
	c.SetEnabled(false)
	if got := c.Drain(); got != (model.TypingSample{}) {
		t.Fatalf("expected counts discarded on disable, got %+v", got)
	}
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector(true)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.OnKey("x")
			}
		}()
	}
	wg.Wait()
	if got := c.Drain(); got.Keys != 800 {
		t.Fatalf("expected 800 keys, got %d", got.Keys)
	}
}
