package domain

// PipelineStage groups statuses for kanban-style views.
type PipelineStage string

const (
	PipelineStageNew        PipelineStage = "new"
	PipelineStageInProgress PipelineStage = "in_progress"
	PipelineStageWon        PipelineStage = "won"
	PipelineStageLost       PipelineStage = "lost"
)

var knownPipelineStages = map[PipelineStage]struct{}{
	PipelineStageNew:        {},
	PipelineStageInProgress: {},
	PipelineStageWon:        {},
	PipelineStageLost:       {},
}

func IsKnownPipelineStage(stage PipelineStage) bool {
	_, ok := knownPipelineStages[stage]
	return ok
}

// StatusToPipeline derives the pipeline stage of a status. Non-canonical
// input is normalized first, so the result is always a known stage.
func StatusToPipeline(s Status) PipelineStage {
	if !s.IsCanonical() {
		s = NormalizeStatus(string(s))
	}
	switch s {
	case StatusInProgress:
		return PipelineStageInProgress
	case StatusWon, StatusCompleted:
		return PipelineStageWon
	case StatusLost:
		return PipelineStageLost
	default:
		return PipelineStageNew
	}
}
