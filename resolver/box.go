package resolver

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/witness"
)

// resolution is one registered task: a closure plus its declared input and
// output Places and the event-clock value at registration.
type resolution[E any] struct {
	inputs  []witness.Place
	outputs []witness.Place
	resolve witness.Resolution[E]
	addedAt uint64
}

// resolverBox is the task arena. Tasks are referenced by ResolverIx (their
// position in the slice), never by pointer, which keeps the dependency
// structure acyclic by construction. The box also owns the single-writer
// bookkeeping: one bitset over the Place space tracking every Place claimed
// either by a direct assignment or as a resolution output.
type resolverBox[E any] struct {
	resolutions []resolution[E]
	claimed     *bitset.BitSet
}

func newResolverBox[E any](maxVariables int) *resolverBox[E] {
	return &resolverBox[E]{
		claimed: bitset.New(uint(maxVariables)),
	}
}

// claimValue marks v as directly assigned. Fails if v is already claimed by
// an assignment or a resolution output.
func (b *resolverBox[E]) claimValue(v witness.Place) error {
	if b.claimed.Test(uint(v)) {
		return fmt.Errorf("%w: place %d", ErrDuplicateAssignment, v)
	}
	b.claimed.Set(uint(v))
	return nil
}

// internalize registers a task and claims its outputs. On a duplicate output
// no claim is retained, so a failed registration leaves the box untouched.
func (b *resolverBox[E]) internalize(inputs, outputs []witness.Place, f witness.Resolution[E], addedAt uint64) (ResolverIx, error) {
	for i, o := range outputs {
		if b.claimed.Test(uint(o)) {
			for _, claimed := range outputs[:i] {
				b.claimed.Clear(uint(claimed))
			}
			return 0, fmt.Errorf("%w: place %d", ErrDuplicateOutput, o)
		}
		b.claimed.Set(uint(o))
	}
	ix := ResolverIx(len(b.resolutions))
	b.resolutions = append(b.resolutions, resolution[E]{
		inputs:  inputs,
		outputs: outputs,
		resolve: f,
		addedAt: addedAt,
	})
	return ix, nil
}

func (b *resolverBox[E]) get(ix ResolverIx) *resolution[E] {
	return &b.resolutions[ix]
}

func (b *resolverBox[E]) count() int {
	return len(b.resolutions)
}
