package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crimson-sun/clinote/internal/engine/labelmap"
	"github.com/crimson-sun/clinote/internal/engine/textclass"
	"github.com/crimson-sun/clinote/internal/model"
)

// ErrEmptyInput is returned for empty or whitespace-only text. No inference
// runs for such input.
var ErrEmptyInput = errors.New("input text is empty")

// Engine orchestrates the validate → predict → map pipeline.
type Engine struct {
	classifier textclass.Classifier
	now        func() time.Time
}

// New creates an Engine over a loaded classifier.
func New(cls textclass.Classifier) *Engine {
	return &Engine{classifier: cls, now: time.Now}
}

// Analyze classifies one clinical note and maps its label to a description.
func (e *Engine) Analyze(text string) (model.Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return model.Analysis{}, ErrEmptyInput
	}

	start := e.now()
	pred, err := e.classifier.Predict(text)
	if err != nil {
		return model.Analysis{}, fmt.Errorf("engine: analyze: %w", err)
	}
	return build(pred, e.now().Sub(start)), nil
}

// AnalyzeBatch classifies several notes in one inference call. Any empty
// note fails the whole batch before inference.
func (e *Engine) AnalyzeBatch(texts []string) ([]model.Analysis, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("engine: note %d: %w", i, ErrEmptyInput)
		}
	}

	start := e.now()
	preds, err := e.classifier.PredictBatch(texts)
	if err != nil {
		return nil, fmt.Errorf("engine: analyze batch: %w", err)
	}
	if len(preds) != len(texts) {
		return nil, fmt.Errorf("engine: analyze batch: got %d predictions for %d notes", len(preds), len(texts))
	}
	per := e.now().Sub(start) / time.Duration(len(texts))

	out := make([]model.Analysis, len(preds))
	for i, p := range preds {
		out[i] = build(p, per)
	}
	return out, nil
}

// Labels returns the raw label names the classifier can emit.
func (e *Engine) Labels() []string {
	return e.classifier.Labels()
}

func build(p model.Prediction, d time.Duration) model.Analysis {
	return model.Analysis{
		ID:          uuid.New(),
		Label:       p.Label,
		Score:       p.Score,
		Description: labelmap.Lookup(p.Label),
		Truncated:   p.Truncated,
		Duration:    d,
	}
}
