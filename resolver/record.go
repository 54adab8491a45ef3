package resolver

// ResolutionRecordItem captures one task of the realized execution order:
// enough to reconstruct dispatch order and batching without redoing readiness
// analysis.
type ResolutionRecordItem struct {
	// AddedAt is the event-clock value at the task's registration.
	AddedAt uint64

	// AcceptedAt is the event-clock value current when the task became
	// eligible.
	AcceptedAt uint64

	// OrderLen is the size of the realized order when the task's batch was
	// accepted.
	OrderLen uint64

	// OrderIx is the task's position in the realized order.
	OrderIx uint64

	// Parallelism is the size of the batch of mutually independent tasks the
	// item belongs to; a replay may run the whole batch concurrently.
	Parallelism uint16
}

// ResolutionRecord is the recorded schedule of one discover-mode session. It
// identifies the circuit shape it was captured from by its registration and
// assignment counts; playback refuses records whose counts disagree with the
// live session.
//
// The engine defines only the record's logical shape plus a WriteTo/ReadFrom
// codec; storage medium and keying (e.g. by circuit-shape hash) are the
// caller's responsibility, behind RecordWriter and RecordSource.
type ResolutionRecord struct {
	Items              []ResolutionRecordItem
	RegistrationsCount uint64
	ValuesCount        uint64
}

// RecordWriter is the persistence boundary for captured records.
type RecordWriter interface {
	Store(record *ResolutionRecord)
}

// RecordSource supplies the record driving a playback session.
type RecordSource interface {
	Get() *ResolutionRecord
}

// TestRecordStorage is an in-memory RecordWriter and RecordSource for tests
// and single-process pipelines.
type TestRecordStorage struct {
	Record *ResolutionRecord
}

func (s *TestRecordStorage) Store(record *ResolutionRecord) { s.Record = record }

func (s *TestRecordStorage) Get() *ResolutionRecord { return s.Record }

// NullRecordWriter drops records.
type NullRecordWriter struct{}

func (NullRecordWriter) Store(*ResolutionRecord) {}
