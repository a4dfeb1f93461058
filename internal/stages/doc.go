// Package stages holds the pure transforms behind the derived columns.
//
// Each function is deterministic: the same input always yields the same
// output, so re-running a stage rewrites an identical value. Storage,
// dependency checks and concurrency live in core/services; this package
// only turns one representation into the next.
package stages
