package resolver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/consensys/witness"
)

func notReady(witness.Place) bool { return false }

func TestGuideFIFOTieBreak(t *testing.T) {
	g := newGuide(8)

	// three tasks all waiting on place 0
	require.False(t, g.register(0, []witness.Place{0}, []witness.Place{1}, notReady, 1))
	require.False(t, g.register(1, []witness.Place{0}, []witness.Place{2}, notReady, 2))
	require.False(t, g.register(2, []witness.Place{0}, []witness.Place{3}, notReady, 3))
	require.Equal(t, 3, g.pendingCount())

	eligible := g.notifyReady(0)
	require.Equal(t, []ResolverIx{0, 1, 2}, eligible)
	require.Equal(t, 0, g.pendingCount())

	// a later event must not revisit the drained dependents list
	require.Empty(t, g.notifyReady(0))
}

func TestGuideImmediateEligibility(t *testing.T) {
	g := newGuide(8)
	ready := func(v witness.Place) bool { return v == 0 }

	require.True(t, g.register(0, []witness.Place{0}, []witness.Place{1}, ready, 1))
	require.True(t, g.register(1, nil, []witness.Place{2}, ready, 2))
	require.False(t, g.register(2, []witness.Place{3}, []witness.Place{4}, ready, 3))
}

func TestGuideDuplicateInput(t *testing.T) {
	g := newGuide(8)

	// the same place twice in one input list counts twice
	require.False(t, g.register(0, []witness.Place{0, 0}, []witness.Place{1}, notReady, 1))
	require.Equal(t, []ResolverIx{0}, g.notifyReady(0))
}

func TestGuideRecordLevels(t *testing.T) {
	g := newGuide(8)
	const v0, aOut, bOut, cOut = witness.Place(0), witness.Place(1), witness.Place(2), witness.Place(3)

	// A: v0 -> aOut, B: aOut -> bOut, C: v0 -> cOut, then v0 assigned
	require.False(t, g.register(0, []witness.Place{v0}, []witness.Place{aOut}, notReady, 1))
	require.False(t, g.register(1, []witness.Place{aOut}, []witness.Place{bOut}, notReady, 2))
	require.False(t, g.register(2, []witness.Place{v0}, []witness.Place{cOut}, notReady, 3))
	g.acceptValue(v0, 4)

	rec := g.writeRecord(3, 1)
	require.Equal(t, uint64(3), rec.RegistrationsCount)
	require.Equal(t, uint64(1), rec.ValuesCount)
	require.Len(t, rec.Items, 3)

	// level 1: A and C as one batch, in registration order
	require.Equal(t, uint64(1), rec.Items[0].AddedAt)
	require.Equal(t, uint64(3), rec.Items[1].AddedAt)
	require.Equal(t, uint16(2), rec.Items[0].Parallelism)
	require.Equal(t, uint16(2), rec.Items[1].Parallelism)
	require.Equal(t, uint64(4), rec.Items[0].AcceptedAt)

	// level 2: B alone
	require.Equal(t, uint64(2), rec.Items[2].AddedAt)
	require.Equal(t, uint16(1), rec.Items[2].Parallelism)
	require.Equal(t, uint64(4), rec.Items[2].AcceptedAt)

	for i, it := range rec.Items {
		require.Equal(t, uint64(i), it.OrderIx)
	}
}

func TestGuideRecordSkipsUnaccepted(t *testing.T) {
	g := newGuide(8)

	require.False(t, g.register(0, []witness.Place{0}, []witness.Place{1}, notReady, 1))
	// place 0 never supplied
	rec := g.writeRecord(1, 0)
	require.Empty(t, rec.Items)
}
