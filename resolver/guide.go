package resolver

import (
	"math"
	"slices"

	"github.com/consensys/witness"
)

// guide converts the registration stream plus readiness events into a valid,
// deterministic execution order. It runs two kinds of bookkeeping:
//
// Dispatch side (readiness-driven): a pending-input counter per task and a
// dependents list per Place. Any Place becoming ready, by direct assignment
// or task completion, decrements the counters of the tasks consuming it; a
// counter reaching zero makes the task eligible for the window. Ties among
// simultaneously eligible tasks break by ascending registration number.
//
// Ordering side (claim-driven): the recorded order must not depend on worker
// timing, so it is derived from the producer stream alone. A task is
// accepted once every input Place has an accepted producer (a direct
// assignment, or an accepted task claiming it as output); its level is
// max(level of input producers) + 1, with directly assigned Places at level
// zero. Tasks of equal level are mutually independent, which is what lets a
// replay dispatch a whole level as one concurrent batch.
//
// The guide holds only indices and counters; callers provide mutual
// exclusion.
type guide struct {
	// dispatch side, per task / per place
	pending    []int32
	dependents [][]ResolverIx

	// ordering side, per task
	addedAt       []uint64
	acceptedAt    []uint64
	level         []int32 // running max of input levels until acceptance, then final
	acceptPending []int32
	outputs       [][]witness.Place

	// ordering side, per place
	acceptWaiters [][]ResolverIx
	placeLevel    []int32
	placeAccepted []bool

	accepted int
}

func newGuide(maxVariables int) *guide {
	return &guide{
		dependents:    make([][]ResolverIx, maxVariables),
		acceptWaiters: make([][]ResolverIx, maxVariables),
		placeLevel:    make([]int32, maxVariables),
		placeAccepted: make([]bool, maxVariables),
	}
}

// register installs both counters for a freshly internalized task and reports
// whether the task is immediately eligible for dispatch. ready reflects the
// current value readiness of a Place.
func (g *guide) register(ix ResolverIx, inputs, outputs []witness.Place, ready func(witness.Place) bool, clock uint64) bool {
	g.pending = append(g.pending, 0)
	g.addedAt = append(g.addedAt, clock)
	g.acceptedAt = append(g.acceptedAt, 0)
	g.level = append(g.level, 0)
	g.acceptPending = append(g.acceptPending, 0)
	g.outputs = append(g.outputs, outputs)

	var unready int32
	for _, in := range inputs {
		if !ready(in) {
			g.dependents[in] = append(g.dependents[in], ix)
			unready++
		}
		if g.placeAccepted[in] {
			g.level[ix] = max(g.level[ix], g.placeLevel[in])
		} else {
			g.acceptWaiters[in] = append(g.acceptWaiters[in], ix)
			g.acceptPending[ix]++
		}
	}
	g.pending[ix] = unready
	if g.acceptPending[ix] == 0 {
		g.acceptTask(ix, clock)
	}
	return unready == 0
}

// notifyReady decrements the dispatch counter of every task waiting on v and
// returns the ones that became eligible, in registration order.
func (g *guide) notifyReady(v witness.Place) []ResolverIx {
	var eligible []ResolverIx
	for _, ix := range g.dependents[v] {
		g.pending[ix]--
		if g.pending[ix] == 0 {
			eligible = append(eligible, ix)
		}
	}
	g.dependents[v] = nil
	return eligible
}

// acceptValue marks a directly assigned Place as an accepted level-zero
// producer and cascades acceptance through its waiters.
func (g *guide) acceptValue(v witness.Place, clock uint64) {
	g.placeAccepted[v] = true
	g.placeLevel[v] = 0
	g.cascade([]witness.Place{v}, clock)
}

// acceptTask finalizes a task's level, stamps its acceptance clock and
// cascades acceptance through its outputs.
func (g *guide) acceptTask(ix ResolverIx, clock uint64) {
	g.level[ix]++
	g.acceptedAt[ix] = clock
	g.accepted++
	for _, o := range g.outputs[ix] {
		g.placeAccepted[o] = true
		g.placeLevel[o] = g.level[ix]
	}
	g.cascade(g.outputs[ix], clock)
}

// cascade wakes the acceptance waiters of freshly accepted places, accepting
// further tasks transitively. Iterative to keep deep chains off the stack.
func (g *guide) cascade(places []witness.Place, clock uint64) {
	stack := slices.Clone(places)
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		waiters := g.acceptWaiters[p]
		g.acceptWaiters[p] = nil
		for _, w := range waiters {
			g.level[w] = max(g.level[w], g.placeLevel[p])
			g.acceptPending[w]--
			if g.acceptPending[w] != 0 {
				continue
			}
			g.level[w]++
			g.acceptedAt[w] = clock
			g.accepted++
			for _, o := range g.outputs[w] {
				g.placeAccepted[o] = true
				g.placeLevel[o] = g.level[w]
				stack = append(stack, o)
			}
		}
	}
}

// pendingCount returns the number of registered tasks that never became
// dispatch-eligible; used for stall diagnostics.
func (g *guide) pendingCount() int {
	var n int
	for _, p := range g.pending {
		if p > 0 {
			n++
		}
	}
	return n
}

// writeRecord serializes the deterministic order into a resolution record:
// accepted tasks sorted by (level, registration number), one batch per
// level, chunked to what the item's parallelism field can express.
func (g *guide) writeRecord(registrations, values uint64) *ResolutionRecord {
	order := make([]ResolverIx, 0, g.accepted)
	for ix := range g.acceptPending {
		if g.acceptPending[ix] == 0 {
			order = append(order, ResolverIx(ix))
		}
	}
	slices.SortFunc(order, func(a, b ResolverIx) int {
		if g.level[a] != g.level[b] {
			return int(g.level[a] - g.level[b])
		}
		return int(a) - int(b) // arena order is registration order
	})

	items := make([]ResolutionRecordItem, 0, len(order))
	for start := 0; start < len(order); {
		end := start
		for end < len(order) && g.level[order[end]] == g.level[order[start]] {
			end++
		}
		for off := start; off < end; off += math.MaxUint16 {
			chunkEnd := min(off+math.MaxUint16, end)
			for j := off; j < chunkEnd; j++ {
				ix := order[j]
				items = append(items, ResolutionRecordItem{
					AddedAt:     g.addedAt[ix],
					AcceptedAt:  g.acceptedAt[ix],
					OrderLen:    uint64(chunkEnd),
					OrderIx:     uint64(j),
					Parallelism: uint16(chunkEnd - off),
				})
			}
		}
		start = end
	}
	return &ResolutionRecord{
		Items:              items,
		RegistrationsCount: registrations,
		ValuesCount:        values,
	}
}
