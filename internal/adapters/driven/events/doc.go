// Package events holds StageEvent publisher adapters.
//
// Subpackages:
//   - kafka: publishes JSON events to a Kafka topic via kafka-go
//   - noop: discards events (default)
package events
