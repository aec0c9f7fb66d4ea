// internal/motor/tap.go
package motor

import "sync"

// TapBus fans a tap event out to every subscribed sink. It decouples the
// sequencer from logging and visualization consumers: the worker publishes
// once per committed input and moves on. Subscribers are called inline and
// must be non-blocking; anything that does I/O should queue internally.
type TapBus struct {
	mu    sync.RWMutex
	sinks []TapSink
}

// NewTapBus creates an empty bus.
func NewTapBus() *TapBus {
	return &TapBus{}
}

// Subscribe registers a sink. Safe to call while taps are being published.
func (b *TapBus) Subscribe(s TapSink) {
	if s == nil {
		return
	}
	b.mu.Lock()
	b.sinks = append(b.sinks, s)
	b.mu.Unlock()
}

// OnTap implements TapSink, so a bus can itself be subscribed to another
// bus or handed directly to a sequencer.
func (b *TapBus) OnTap(ev TapEvent) {
	b.mu.RLock()
	sinks := b.sinks
	b.mu.RUnlock()
	for _, s := range sinks {
		s.OnTap(ev)
	}
}

// TapFunc adapts a function to the TapSink interface.
type TapFunc func(ev TapEvent)

func (f TapFunc) OnTap(ev TapEvent) { f(ev) }
