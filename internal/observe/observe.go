// package observe provides small in-process broadcast values.
//
// A Value holds the latest emission and fans it out to any number of
// subscribers. It backs the explicit observables of the client: current
// server info, the logged-in session and user, and the user-facing error
// message stream. Subscribers receive on buffered channels and slow consumers
// lose intermediate values rather than blocking producers.
package observe

import "sync"

// subscriberBuffer is the per-subscriber channel capacity. A consumer that
// falls further behind than this drops intermediate emissions.
const subscriberBuffer = 16

// Value is a broadcast cell for a single value of type T.
//
// Set replaces the current value and notifies every subscriber. When the
// Value was built with [NewDistinct], emissions equal to the current value
// are suppressed, so subscribers only ever observe changes.
type Value[T any] struct {
	mu     sync.Mutex
	cur    T
	has    bool
	closed bool
	equal  func(a, b T) bool
	subs   map[int]chan T
	nextID int
}

// New creates a Value that forwards every Set to subscribers.
func New[T any]() *Value[T] {
	return &Value[T]{subs: make(map[int]chan T)}
}

// NewDistinct creates a Value that suppresses consecutive duplicate
// emissions, compared with ==.
func NewDistinct[T comparable]() *Value[T] {
	return &Value[T]{
		subs:  make(map[int]chan T),
		equal: func(a, b T) bool { return a == b },
	}
}

// NewDistinctFunc creates a Value that suppresses consecutive duplicates as
// judged by eq.
func NewDistinctFunc[T any](eq func(a, b T) bool) *Value[T] {
	return &Value[T]{subs: make(map[int]chan T), equal: eq}
}

// Set publishes v. It reports whether the value was actually emitted; a
// distinct Value returns false for a duplicate, and any Value returns false
// after Close.
func (v *Value[T]) Set(val T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return false
	}
	if v.equal != nil && v.has && v.equal(v.cur, val) {
		return false
	}
	v.cur = val
	v.has = true
	for _, ch := range v.subs {
		select {
		case ch <- val:
		default:
			// drop for slow consumers
		}
	}
	return true
}

// Get returns the current value and whether one has ever been set.
func (v *Value[T]) Get() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur, v.has
}

// Subscribe registers a new consumer. If a value is already present it is
// delivered immediately. The returned cancel function unregisters the
// consumer and closes its channel; it is safe to call more than once.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	ch := make(chan T, subscriberBuffer)
	if v.closed {
		close(ch)
		return ch, func() {}
	}

	id := v.nextID
	v.nextID++
	v.subs[id] = ch
	if v.has {
		ch <- v.cur
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			if _, ok := v.subs[id]; ok {
				delete(v.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Close unregisters and closes every subscriber channel. Subsequent Sets are
// no-ops and subsequent Subscribes receive an already-closed channel.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	for id, ch := range v.subs {
		delete(v.subs, id)
		close(ch)
	}
}
