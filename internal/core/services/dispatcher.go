package services

import "github.com/custodia-labs/sercha-ingest/internal/core/domain"

// Dispatch turns a delta into execution requests, one per distinct key.
// When a key repeats within one delta the first occurrence wins, so the
// request order follows discovery order.
func Dispatch(delta []domain.SourceObject) []domain.ExecutionRequest {
	if len(delta) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(delta))
	requests := make([]domain.ExecutionRequest, 0, len(delta))
	for _, obj := range delta {
		if _, dup := seen[obj.Key]; dup {
			continue
		}
		seen[obj.Key] = struct{}{}
		requests = append(requests, domain.ExecutionRequest{
			Key:     obj.Key,
			Locator: obj.Locator,
		})
	}
	return requests
}
