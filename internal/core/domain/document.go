package domain

import "time"

// Document represents one ingested source file.
// It is created at upload time and owns zero or more chunks.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Owner is an opaque ownership tag supplied by the caller.
	// The core does not interpret it beyond scoping queries and listings.
	Owner string

	// Filename is the original name of the uploaded file.
	Filename string

	// Format is the detected ingestion format (e.g. "pdf", "docx", "txt").
	Format string

	// SizeBytes is the size of the uploaded file in bytes.
	SizeBytes int64

	// Status is the ingestion lifecycle state. Only the lifecycle
	// tracker may change it.
	Status Status

	// Metadata contains arbitrary key-value pairs (page count, etc).
	Metadata map[string]any

	// CreatedAt is when the document was uploaded.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// BlobHandle returns the opaque handle under which the document's
// original bytes are stored.
func (d *Document) BlobHandle() string {
	return d.ID
}
