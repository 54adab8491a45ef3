package resolver

import (
	"fmt"
	"sync"

	"github.com/consensys/witness"
)

// resolverCommonData is the state shared between a sorting strategy and the
// execution side (worker pool or inline runner): the value store, the task
// arena, and the channel feeding admitted tasks to the workers.
type resolverCommonData[E any] struct {
	store *valueStore[E]
	box   *resolverBox[E]
	exec  chan ResolverIx
}

// runResolution executes one task: gathers the current input values, invokes
// the closure with a positional output buffer, and publishes every output
// into the store (value first, then readiness flag). Completion reporting is
// the caller's business.
func runResolution[E any](common *resolverCommonData[E], ix ResolverIx) error {
	r := common.box.get(ix)

	inputs := make([]E, len(r.inputs))
	for i, v := range r.inputs {
		inputs[i] = common.store.GetValueUnchecked(v)
	}

	outputs := make([]E, len(r.outputs))
	buf := witness.NewDstBuffer(outputs)
	if err := r.resolve(inputs, buf); err != nil {
		return fmt.Errorf("resolution registered at %d: %w", r.addedAt, err)
	}
	if buf.Len() != len(r.outputs) {
		return fmt.Errorf("resolution registered at %d: pushed %d of %d declared outputs", r.addedAt, buf.Len(), len(r.outputs))
	}

	for i, v := range r.outputs {
		common.store.publish(v, outputs[i])
	}
	return nil
}

// completionSink receives worker reports. Implemented by the sorting
// strategies.
type completionSink interface {
	// onResolved is called after every output of the task has been published.
	onResolved(ix ResolverIx)

	// poison records a fatal session error. A failed closure must poison the
	// session rather than drop outputs, since a dependent waiting on them
	// would otherwise hang forever.
	poison(err error)
}

// resolverComms owns the worker pool of the multithreaded façade. Workers
// pull admitted tasks from the shared exec channel, run them, and report back
// to the sorting strategy so dependents can be promoted. The pool lives for
// the lifetime of the façade instance and is torn down on Clear.
type resolverComms[E any] struct {
	common *resolverCommonData[E]
	sink   completionSink
	quit   chan struct{}
	wg     sync.WaitGroup
}

func startResolverComms[E any](common *resolverCommonData[E], sink completionSink, workers int) *resolverComms[E] {
	c := &resolverComms[E]{
		common: common,
		sink:   sink,
		quit:   make(chan struct{}),
	}
	c.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go c.workerLoop()
	}
	return c
}

func (c *resolverComms[E]) workerLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.quit:
			return
		case ix := <-c.common.exec:
			if err := runResolution(c.common, ix); err != nil {
				c.sink.poison(err)
				return
			}
			c.sink.onResolved(ix)
		}
	}
}

// shutdown stops the pool and waits for workers to exit. Tasks still queued
// on the exec channel are dropped; shutdown is only reached on Clear or after
// the session is poisoned.
func (c *resolverComms[E]) shutdown() {
	close(c.quit)
	c.wg.Wait()
}
