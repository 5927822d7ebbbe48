package observe

import "sync"

// Binding keeps two observables in sync. Source changes flow to the target
// through forward; target changes flow back through backward.
type Binding[S, T any] struct {
	source   Observable[S]
	target   Observable[T]
	forward  func(S) T
	backward func(T) S

	mu        sync.Mutex
	connected bool
	updating  bool
	srcHandle Handle
	tgtHandle Handle
}

// Bind creates a disconnected binding between two fields of the same type.
func Bind[T any](source, target Observable[T]) *Binding[T, T] {
	id := func(v T) T { return v }
	return BindFunc(source, target, id, id)
}

// BindFunc creates a disconnected binding with value transforms.
func BindFunc[S, T any](source Observable[S], target Observable[T], forward func(S) T, backward func(T) S) *Binding[S, T] {
	return &Binding[S, T]{source: source, target: target, forward: forward, backward: backward}
}

// Connect copies the source value to the target and then subscribes both
// sides. Connecting a connected binding does nothing.
func (b *Binding[S, T]) Connect() {
	b.mu.Lock()
	if b.connected {
		b.mu.Unlock()
		return
	}
	b.connected = true
	b.updating = true
	b.mu.Unlock()

	b.target.Set(b.forward(b.source.Get()))

	b.mu.Lock()
	b.updating = false
	b.srcHandle = b.source.Observe(b.onSource)
	b.tgtHandle = b.target.Observe(b.onTarget)
	b.mu.Unlock()
}

// Disconnect unsubscribes both sides. Disconnecting twice does nothing.
func (b *Binding[S, T]) Disconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return
	}
	b.source.Unobserve(b.srcHandle)
	b.target.Unobserve(b.tgtHandle)
	b.connected = false
}

// Connected reports whether updates are forwarded.
func (b *Binding[S, T]) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *Binding[S, T]) begin() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.updating || !b.connected {
		return false
	}
	b.updating = true
	return true
}

func (b *Binding[S, T]) end() {
	b.mu.Lock()
	b.updating = false
	b.mu.Unlock()
}

func (b *Binding[S, T]) onSource(ch Change[S]) {
	if !b.begin() {
		return
	}
	defer b.end()
	b.target.Set(b.forward(ch.New))
}

func (b *Binding[S, T]) onTarget(ch Change[T]) {
	if !b.begin() {
		return
	}
	defer b.end()
	b.source.Set(b.backward(ch.New))
}
