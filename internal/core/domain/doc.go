// Package domain defines the core business entities for regsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocumentRecord: The registry's unit of truth, one per revision
//   - LineageKey: Identity of a document across its revisions
//   - Identity: Structured identity parsed from a filename
//   - RemoteFile: An ephemeral descriptor of a file in the folder store
//   - SyncError / SyncResult / SyncRun: Outcomes of a reconciliation run
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
