package model

import (
	"time"

	"github.com/google/uuid"
)

// Prediction is the single top-scoring label of one inference call.
type Prediction struct {
	Label     string  // raw model label, e.g. "LABEL_2"
	Score     float64 // softmax probability in [0,1]
	Truncated bool    // input exceeded the model context and was cut
}

// Analysis is the ephemeral result of one analyze trigger. It is built,
// displayed, and dropped; nothing retains it across triggers.
type Analysis struct {
	ID          uuid.UUID     `json:"id"`
	Label       string        `json:"label"`
	Score       float64       `json:"score"`
	Description string        `json:"description"`
	Truncated   bool          `json:"truncated,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
}

// Prediction returns the raw label/score pair the analysis was built from.
func (a Analysis) Prediction() Prediction {
	return Prediction{Label: a.Label, Score: a.Score, Truncated: a.Truncated}
}
