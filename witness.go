package witness

// Place identifies one circuit variable slot. Identifiers are dense: a
// resolver sized for n variables accepts Places in [0, n).
type Place uint32

// DstBuffer is the positional output buffer a resolution writes into. The
// i-th Push delivers the value of the i-th declared output Place.
//
// The buffer is backed by engine-owned storage; a closure must not retain it
// past its own return.
type DstBuffer[E any] struct {
	dst []E
	n   int
}

// NewDstBuffer wraps dst, one slot per declared output.
func NewDstBuffer[E any](dst []E) *DstBuffer[E] {
	return &DstBuffer[E]{dst: dst}
}

// Push appends the next output value. Panics if the closure pushes more
// values than its declared output count; pushing fewer is reported by the
// engine as a closure failure.
func (b *DstBuffer[E]) Push(v E) {
	b.dst[b.n] = v
	b.n++
}

// Len returns the number of values pushed so far.
func (b *DstBuffer[E]) Len() int {
	return b.n
}

// Resolution computes the values of its declared output Places from the
// values of its declared input Places. The inputs slice is positional and
// read-only; outputs are delivered by pushing into out, in declaration order.
//
// A resolution must be a pure function of its inputs: it runs exactly once,
// on an arbitrary worker, possibly concurrently with unrelated resolutions.
// It must not touch shared mutable state beyond what the engine hands it.
// Returning a non-nil error poisons the whole session.
type Resolution[E any] func(inputs []E, out *DstBuffer[E]) error

// Source is the read side of a witness container.
type Source[E any] interface {
	// TryGetValue returns the value of the given Place if it has been
	// resolved, and reports whether it has.
	TryGetValue(v Place) (E, bool)

	// GetValueUnchecked returns the value of the given Place. The caller
	// asserts it already observed the Place as resolved; the result is
	// undefined otherwise.
	GetValueUnchecked(v Place) E
}

// Awaiter blocks until a fixed set of Places is resolved.
type Awaiter interface {
	Wait()
}

// SourceAwaitable is a Source that can hand out blocking handles over
// subsets of its Places. Awaiters are meant for consumers outside the
// scheduling protocol, e.g. the final value-extraction phase.
type SourceAwaitable[E any] interface {
	Source[E]

	GetAwaiter(vars ...Place) Awaiter
}
