// Package domain defines the core business entities for sercha-ingest.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Record: One row of derived representations for a partition key
//   - Column: A named column of a Record, written by exactly one stage
//   - Relationship: An ordered pair of documents with a kind
//   - Cursor: The watcher high-watermark
//   - ExecutionRequest: The seed input for a partition's pipeline
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
