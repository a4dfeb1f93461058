// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The tick path is Watcher.Scan, then PartitionRegistry.Register, then
// Dispatch. Execution is StageExecutor, fanned out across keys by
// WorkerPool. WatchService ties both together around a persisted cursor
// and Scheduler runs it on an interval.
package services
