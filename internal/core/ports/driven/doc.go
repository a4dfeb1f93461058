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
//   - RecordStore: Document record persistence, one row per partition key
//   - PartitionStore: Append-only set of known partition keys
//   - CursorStore: Watch cursor persistence between ticks
//   - ObjectSource: Enumerates and reads source objects
//   - ConverterRegistry: Selects a converter for stage to_markdown
//   - EmbeddingService: Scores chunks for stage embed
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the engine degrades gracefully:
//
//   - RelationshipStore: Relationship records between documents
//   - SchedulerStore: Task state and history. Without it, ticks are not recorded.
//   - EventPublisher: Stage completion events. Without it, events are dropped.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, converter, or stage package
package driven
