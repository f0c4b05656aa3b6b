// Package atomics provides a few simple synchronization primitives that
// supplement the sync package.
package atomics

import "sync"

// Bool is an atomic boolean, no need to initialize default value is false.
type Bool struct {
	m     sync.Mutex
	value bool
}

// NewBool returns an atomic boolean initialized with value.
func NewBool(value bool) Bool {
	return Bool{value: value}
}

// Set will change the value of the boolean
func (b *Bool) Set(value bool) {
	b.m.Lock()
	defer b.m.Unlock()
	b.value = value
}

// Get returns the value of the boolean
func (b *Bool) Get() bool {
	b.m.Lock()
	defer b.m.Unlock()
	return b.value
}

// Swap sets the value of the boolean and returns the old value
func (b *Bool) Swap(value bool) bool {
	b.m.Lock()
	defer b.m.Unlock()
	old := b.value
	b.value = value
	return old
}
