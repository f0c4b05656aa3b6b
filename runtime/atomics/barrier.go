package atomics

import "sync"

// A Barrier is an atomic primitive that can be unblocked once, after which
// it stays permanently unblocked. Useful for communicating permanent state
// changes like shutdown.
type Barrier struct {
	m         sync.Mutex
	b         chan struct{}
	callbacks []func()
}

func (b *Barrier) init() {
	b.m.Lock()
	defer b.m.Unlock()

	if b.b == nil {
		b.b = make(chan struct{})
	}
}

// Fall lowers the barrier permanently unblocking anyone waiting for it.
func (b *Barrier) Fall() {
	b.init()

	b.m.Lock()
	defer b.m.Unlock()

	select {
	case <-b.b:
	default:
		for _, cb := range b.callbacks {
			cb()
		}
		b.callbacks = nil
		close(b.b)
	}
}

// IsFallen returns true, if the barrier is lowered.
func (b *Barrier) IsFallen() bool {
	select {
	case <-b.Barrier():
		return true
	default:
		return false
	}
}

// Barrier returns a channel that is closed when the barrier is lowered.
func (b *Barrier) Barrier() <-chan struct{} {
	b.init()
	return b.b
}

// Forward ensures that cb is called when b is lowered. If already lowered,
// cb is called immediately.
func (b *Barrier) Forward(cb func()) {
	b.init()

	b.m.Lock()
	defer b.m.Unlock()

	select {
	case <-b.b:
		cb()
	default:
		b.callbacks = append(b.callbacks, cb)
	}
}
