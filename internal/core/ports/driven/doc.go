// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the engine to function:
//
//   - FolderStore: Listing, metadata and content access to the external
//     cloud folder store (Google Drive adapter in production)
//   - DocumentRegistry: Persistence of document records
//   - TenantStore: Tenant/user resolution
//   - RunStore: Persisted sync-run status records
//   - SchedulerStore: Scheduler task state and history
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the engine degrades gracefully:
//
//   - OperatorNotifier: Terminal-failure notifications. Without it,
//     critical errors are only logged.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
