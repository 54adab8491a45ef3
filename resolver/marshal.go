package resolver

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/blang/semver/v4"
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/sync/errgroup"

	"github.com/consensys/witness"
	"github.com/consensys/witness/internal/ioutils"
	"github.com/consensys/witness/logger"
)

// Record serialization: a cbor header followed by five integer columns, one
// per record-item field. The columns hold mostly-monotonic counters, which is
// exactly what intcomp compresses well; they are independent, so they are
// compressed in parallel.

type recordHeader struct {
	Version            string `cbor:"version"`
	Items              uint64 `cbor:"items"`
	RegistrationsCount uint64 `cbor:"registrations"`
	ValuesCount        uint64 `cbor:"values"`
}

// WriteTo serializes the record to w.
func (rec *ResolutionRecord) WriteTo(w io.Writer) (int64, error) {
	n := len(rec.Items)
	addedAt := make([]uint64, n)
	acceptedAt := make([]uint64, n)
	orderLen := make([]uint64, n)
	orderIx := make([]uint64, n)
	parallelism := make([]uint16, n)
	for i, it := range rec.Items {
		addedAt[i] = it.AddedAt
		acceptedAt[i] = it.AcceptedAt
		orderLen[i] = it.OrderLen
		orderIx[i] = it.OrderIx
		parallelism[i] = it.Parallelism
	}

	var columns [5]bytes.Buffer
	var g errgroup.Group
	for i, c := range [][]uint64{addedAt, acceptedAt, orderLen, orderIx} {
		i, c := i, c
		g.Go(func() error {
			return ioutils.CompressAndWriteUints64(&columns[i], c)
		})
	}
	g.Go(func() error {
		return ioutils.CompressAndWriteUints16(&columns[4], parallelism)
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	header, err := cbor.Marshal(recordHeader{
		Version:            witness.Version.String(),
		Items:              uint64(n),
		RegistrationsCount: rec.RegistrationsCount,
		ValuesCount:        rec.ValuesCount,
	})
	if err != nil {
		return 0, err
	}

	var written int64
	if err := binary.Write(w, binary.LittleEndian, uint64(len(header))); err != nil {
		return written, err
	}
	written += 8
	wn, err := w.Write(header)
	written += int64(wn)
	if err != nil {
		return written, err
	}
	for i := range columns {
		wn, err := w.Write(columns[i].Bytes())
		written += int64(wn)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// ReadFrom deserializes a record from r, replacing rec's content.
func (rec *ResolutionRecord) ReadFrom(r io.Reader) (int64, error) {
	var headerLen uint64
	if err := binary.Read(r, binary.LittleEndian, &headerLen); err != nil {
		return 0, err
	}
	read := int64(8)

	headerBytes := make([]byte, headerLen)
	rn, err := io.ReadFull(r, headerBytes)
	read += int64(rn)
	if err != nil {
		return read, err
	}
	var header recordHeader
	if err := cbor.Unmarshal(headerBytes, &header); err != nil {
		return read, fmt.Errorf("when parsing record header: %w", err)
	}
	recordVersion, err := semver.Parse(header.Version)
	if err != nil {
		return read, fmt.Errorf("when parsing record version: %w", err)
	}
	if recordVersion.Compare(witness.Version) != 0 {
		log := logger.Logger()
		log.Warn().Str("binary", witness.Version.String()).Str("record", recordVersion.String()).
			Msg("witness version (binary) mismatch with resolution record. there are no guarantees on compatibility")
	}

	var columns [4][]uint64
	for i := range columns {
		rn, c, err := ioutils.ReadAndDecompressUints64(r)
		read += int64(rn)
		if err != nil {
			return read, err
		}
		columns[i] = c
	}
	rn, parallelism, err := ioutils.ReadAndDecompressUints16(r)
	read += int64(rn)
	if err != nil {
		return read, err
	}

	n := int(header.Items)
	for _, c := range columns {
		if len(c) != n {
			return read, fmt.Errorf("invalid record: column length %d, want %d", len(c), n)
		}
	}
	if len(parallelism) != n {
		return read, fmt.Errorf("invalid record: column length %d, want %d", len(parallelism), n)
	}

	rec.Items = make([]ResolutionRecordItem, n)
	for i := range rec.Items {
		rec.Items[i] = ResolutionRecordItem{
			AddedAt:     columns[0][i],
			AcceptedAt:  columns[1][i],
			OrderLen:    columns[2][i],
			OrderIx:     columns[3][i],
			Parallelism: parallelism[i],
		}
	}
	rec.RegistrationsCount = header.RegistrationsCount
	rec.ValuesCount = header.ValuesCount
	return read, nil
}
