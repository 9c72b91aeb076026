package domain

// Status is the ingestion lifecycle state of a document.
//
// The machine is:
//
//	uploaded -> processing -> indexed
//	processing -> failed
//	failed -> processing      (manual retry)
//	indexed -> processing     (manual re-ingestion)
//
// indexed and failed are terminal for practical purposes: both remain
// retriable and deletable. Deletion is permitted from any state.
type Status string

const (
	// StatusUploaded means the bytes are stored but not yet processed.
	StatusUploaded Status = "uploaded"

	// StatusProcessing means an ingestion run is in flight. It is the
	// only state concurrent readers observe during the run.
	StatusProcessing Status = "processing"

	// StatusIndexed means all chunks and vectors are written.
	StatusIndexed Status = "indexed"

	// StatusFailed means an ingestion stage failed. The document may
	// be retried or deleted.
	StatusFailed Status = "failed"
)

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusUploaded, StatusProcessing, StatusIndexed, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether the lifecycle machine permits moving
// from s to next.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusUploaded:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusIndexed || next == StatusFailed
	case StatusIndexed:
		return next == StatusProcessing
	case StatusFailed:
		return next == StatusProcessing
	}
	return false
}
