package domain

// StageName identifies one stage of the per-partition pipeline.
type StageName string

// Pipeline stages in dependency order.
const (
	StageRegister   StageName = "register"
	StageToMarkdown StageName = "to_markdown"
	StageToJSON     StageName = "to_json"
	StageToPlain    StageName = "to_plain"
	StageChunk      StageName = "chunk"
	StageEmbed      StageName = "embed"
)

// Stages lists every stage in a valid topological order.
var Stages = []StageName{
	StageRegister,
	StageToMarkdown,
	StageToJSON,
	StageToPlain,
	StageChunk,
	StageEmbed,
}

// ParseStage returns the stage with the given name.
func ParseStage(name string) (StageName, bool) {
	for _, s := range Stages {
		if string(s) == name {
			return s, true
		}
	}
	return "", false
}

// StageOutcome is the result of one (key, stage) execution.
type StageOutcome struct {
	Stage StageName

	// Err is nil on success.
	Err error

	// Skipped is true when the stage did not run because a dependency failed.
	Skipped bool
}

// PipelineResult collects the stage outcomes of one ExecutionRequest.
type PipelineResult struct {
	// RunID correlates log lines and events for one execution.
	RunID string

	// Key is the partition key.
	Key string

	// Outcomes holds one entry per attempted or skipped stage.
	Outcomes []StageOutcome
}

// Failed returns the outcomes that ended in an error.
func (r *PipelineResult) Failed() []StageOutcome {
	var failed []StageOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Succeeded reports whether every stage ran without error.
func (r *PipelineResult) Succeeded() bool {
	for _, o := range r.Outcomes {
		if o.Err != nil || o.Skipped {
			return false
		}
	}
	return len(r.Outcomes) > 0
}

// Outcome returns the outcome recorded for stage, if any.
func (r *PipelineResult) Outcome(stage StageName) (StageOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.Stage == stage {
			return o, true
		}
	}
	return StageOutcome{}, false
}
