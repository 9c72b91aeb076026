package domain

import "errors"

// Domain errors represent pipeline and business logic failures.
// These are distinct from infrastructure errors and are matched with
// errors.Is after wrapping at call sites.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Ingestion-stage errors. Any of these aborts the current
	// document's pipeline run and transitions it to failed.

	// ErrUnsupportedFormat indicates the upload's format tag is not
	// recognised by any registered loader. Raised at upload time,
	// never at query time.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrCorruptInput indicates the document bytes could not be
	// parsed by the loader for their declared format.
	ErrCorruptInput = errors.New("corrupt document input")

	// ErrChunking indicates the chunker was given malformed
	// boundaries (e.g. overlap >= chunk size).
	ErrChunking = errors.New("chunking failed")

	// ErrEmbeddingService indicates a transient upstream embedding
	// failure. Callers decide the retry policy.
	ErrEmbeddingService = errors.New("embedding service failed")

	// ErrIndexWrite indicates a vector index write failed.
	ErrIndexWrite = errors.New("vector index write failed")

	// Query-stage errors.

	// ErrIndexQuery indicates a vector index query failed.
	ErrIndexQuery = errors.New("vector index query failed")

	// ErrRerankService indicates the rerank model is unavailable.
	// Non-fatal: the read path degrades to raw similarity ordering.
	ErrRerankService = errors.New("rerank service unavailable")

	// ErrGenerationService indicates answer generation failed. The
	// caller receives this typed error, never an ungrounded answer.
	ErrGenerationService = errors.New("generation service failed")

	// ErrLifecycleConflict indicates an illegal lifecycle transition,
	// e.g. ingesting a document that is already processing.
	ErrLifecycleConflict = errors.New("lifecycle conflict")
)
