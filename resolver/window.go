package resolver

// resolutionWindow is the bounded in-flight set of eligible-or-executing
// tasks. Admitted tasks travel through the exec channel to the worker pool;
// eligible tasks beyond capacity spill to a FIFO and are admitted as
// completions free up slots. Registration therefore never blocks on a full
// window.
//
// Admission policy: eager FIFO. Every eligibility event admits as many
// spilled-then-new tasks as remaining capacity allows, in realized-order
// position, so admission order equals eligibility order. Callers hold the
// sorter lock; the exec channel is buffered to capacity and inFlight counts
// admitted-but-uncompleted tasks, so sends below never block.
type resolutionWindow struct {
	capacity uint32
	exec     chan ResolverIx
	spill    []ResolverIx
	head     int
	inFlight uint32
}

func newResolutionWindow(capacity uint32) *resolutionWindow {
	return &resolutionWindow{
		capacity: capacity,
		exec:     make(chan ResolverIx, capacity),
	}
}

// admit queues newly eligible tasks and flushes.
func (w *resolutionWindow) admit(ixs []ResolverIx) {
	w.spill = append(w.spill, ixs...)
	w.flush()
}

// flush moves spilled tasks into execution up to remaining capacity.
func (w *resolutionWindow) flush() {
	for w.head < len(w.spill) && w.inFlight < w.capacity {
		w.inFlight++
		w.exec <- w.spill[w.head]
		w.head++
	}
	if w.head == len(w.spill) {
		w.spill = w.spill[:0]
		w.head = 0
	}
}

// onComplete releases one slot and flushes.
func (w *resolutionWindow) onComplete() {
	w.inFlight--
	w.flush()
}

// idle reports whether nothing is executing and nothing is waiting for a
// slot. With registrations over, an idle window plus unfinished tasks means
// the session stalled.
func (w *resolutionWindow) idle() bool {
	return w.inFlight == 0 && w.head == len(w.spill)
}
