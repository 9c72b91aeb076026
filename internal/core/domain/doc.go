// Package domain defines the core business entities for Veridoc.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded source file with lifecycle status
//   - Chunk: The atomic retrievable unit with positional provenance
//   - Page/Block: Loader output with layout metadata
//   - Source/Answer: What the query path returns to callers
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
