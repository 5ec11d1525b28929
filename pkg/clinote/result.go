package clinote

import (
	"time"

	"github.com/google/uuid"

	"github.com/crimson-sun/clinote/internal/model"
	"github.com/crimson-sun/clinote/internal/report"
)

// Result is one analysis of a note.
// This is the stable public type; internal representations may evolve
// independently.
type Result struct {
	ID          uuid.UUID     `json:"id"`
	Label       string        `json:"label"`       // raw model label, e.g. LABEL_2
	Score       float64       `json:"score"`       // probability of Label, in [0,1]
	Description string        `json:"description"` // disease category or "Unknown Condition"
	Truncated   bool          `json:"truncated,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
}

// String renders the three-line report.
func (r Result) String() string {
	return report.Format(r.analysis())
}

// Confidence is Score as a percentage with two decimals, e.g. "87.34%".
func (r Result) Confidence() string {
	return report.Confidence(r.Score)
}

func (r Result) analysis() model.Analysis {
	return model.Analysis{
		ID:          r.ID,
		Label:       r.Label,
		Score:       r.Score,
		Description: r.Description,
		Truncated:   r.Truncated,
		Duration:    r.Duration,
	}
}

func resultFromAnalysis(a model.Analysis) Result {
	return Result{
		ID:          a.ID,
		Label:       a.Label,
		Score:       a.Score,
		Description: a.Description,
		Truncated:   a.Truncated,
		Duration:    a.Duration,
	}
}
