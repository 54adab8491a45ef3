package resolver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/consensys/witness"
)

func TestResolverBoxInternalize(t *testing.T) {
	b := newResolverBox[uint64](16)

	ix, err := b.internalize([]witness.Place{0}, []witness.Place{1, 2}, nil, 1)
	require.NoError(t, err)
	require.Equal(t, ResolverIx(0), ix)

	ix, err = b.internalize([]witness.Place{1}, []witness.Place{3}, nil, 2)
	require.NoError(t, err)
	require.Equal(t, ResolverIx(1), ix)
	require.Equal(t, 2, b.count())

	r := b.get(0)
	require.Equal(t, []witness.Place{1, 2}, r.outputs)
	require.Equal(t, uint64(1), r.addedAt)
}

func TestResolverBoxDuplicateOutput(t *testing.T) {
	b := newResolverBox[uint64](16)

	_, err := b.internalize(nil, []witness.Place{1, 2}, nil, 1)
	require.NoError(t, err)

	// claimed by a previous resolution
	_, err = b.internalize(nil, []witness.Place{2}, nil, 2)
	require.ErrorIs(t, err, ErrDuplicateOutput)

	// claimed by a direct assignment
	require.NoError(t, b.claimValue(3))
	_, err = b.internalize(nil, []witness.Place{3}, nil, 3)
	require.ErrorIs(t, err, ErrDuplicateOutput)

	// direct assignment on a claimed output
	require.ErrorIs(t, b.claimValue(1), ErrDuplicateAssignment)
	require.ErrorIs(t, b.claimValue(3), ErrDuplicateAssignment)
}

func TestResolverBoxFailedInternalizeKeepsNoClaims(t *testing.T) {
	b := newResolverBox[uint64](16)

	// intra-call duplicate: nothing must stay claimed
	_, err := b.internalize(nil, []witness.Place{4, 4}, nil, 1)
	require.ErrorIs(t, err, ErrDuplicateOutput)
	require.Equal(t, 0, b.count())

	require.NoError(t, b.claimValue(4))
}
