package resolver

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestRecordSerialization(t *testing.T) {
	rec := &ResolutionRecord{
		Items: []ResolutionRecordItem{
			{AddedAt: 2, AcceptedAt: 3, OrderLen: 2, OrderIx: 0, Parallelism: 2},
			{AddedAt: 4, AcceptedAt: 4, OrderLen: 2, OrderIx: 1, Parallelism: 2},
			{AddedAt: 5, AcceptedAt: 7, OrderLen: 3, OrderIx: 2, Parallelism: 1},
		},
		RegistrationsCount: 3,
		ValuesCount:        2,
	}

	var buf bytes.Buffer
	written, err := rec.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), written)

	var got ResolutionRecord
	read, err := got.ReadFrom(&buf)
	require.NoError(t, err)
	require.Equal(t, written, read)

	if diff := cmp.Diff(rec, &got); diff != "" {
		t.Fatalf("record round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordSerializationTruncated(t *testing.T) {
	rec := &ResolutionRecord{
		Items:              []ResolutionRecordItem{{AddedAt: 1, AcceptedAt: 1, OrderLen: 1, Parallelism: 1}},
		RegistrationsCount: 1,
		ValuesCount:        1,
	}
	var buf bytes.Buffer
	_, err := rec.WriteTo(&buf)
	require.NoError(t, err)

	truncated := buf.Bytes()[:buf.Len()-1]
	var got ResolutionRecord
	_, err = got.ReadFrom(bytes.NewReader(truncated))
	require.Error(t, err)
}

func TestRecordSerializationProp(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)
	properties.Property("record round trips through WriteTo/ReadFrom", prop.ForAll(
		func(raw []uint64, registrations, values uint64) bool {
			items := make([]ResolutionRecordItem, 1+len(raw))
			for i := range items {
				var v uint64 = 0x9e3779b97f4a7c15
				if i > 0 {
					v = raw[i-1]
				}
				items[i] = ResolutionRecordItem{
					AddedAt:     v,
					AcceptedAt:  v ^ registrations,
					OrderLen:    v >> 3,
					OrderIx:     uint64(i),
					Parallelism: uint16(v),
				}
			}
			rec := &ResolutionRecord{
				Items:              items,
				RegistrationsCount: registrations,
				ValuesCount:        values,
			}

			var buf bytes.Buffer
			if _, err := rec.WriteTo(&buf); err != nil {
				return false
			}
			var got ResolutionRecord
			if _, err := got.ReadFrom(&buf); err != nil {
				return false
			}
			return cmp.Diff(rec, &got) == ""
		},
		gen.SliceOf(gen.UInt64()),
		gen.UInt64(),
		gen.UInt64(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
