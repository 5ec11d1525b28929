package engine

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/crimson-sun/clinote/internal/engine/labelmap"
	"github.com/crimson-sun/clinote/internal/engine/loader"
	"github.com/crimson-sun/clinote/internal/engine/testdata"
	"github.com/crimson-sun/clinote/internal/engine/textclass"
	"github.com/crimson-sun/clinote/internal/model"
)

// stubClassifier returns canned predictions and records its inputs.
type stubClassifier struct {
	preds []model.Prediction
	err   error
	calls [][]string
}

func (s *stubClassifier) Predict(text string) (model.Prediction, error) {
	preds, err := s.PredictBatch([]string{text})
	if err != nil {
		return model.Prediction{}, err
	}
	return preds[0], nil
}

func (s *stubClassifier) PredictBatch(texts []string) ([]model.Prediction, error) {
	s.calls = append(s.calls, texts)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.Prediction, len(texts))
	for i := range texts {
		out[i] = s.preds[i%len(s.preds)]
	}
	return out, nil
}

func (s *stubClassifier) Labels() []string { return []string{"LABEL_0", "LABEL_1", "LABEL_2"} }
func (s *stubClassifier) Close() error     { return nil }

func TestAnalyzeMapsLabel(t *testing.T) {
	cls := &stubClassifier{preds: []model.Prediction{{Label: "LABEL_2", Score: 0.8734}}}
	eng := New(cls)

	a, err := eng.Analyze("HbA1c 9.2%, polyuria")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if a.Label != "LABEL_2" || a.Score != 0.8734 {
		t.Errorf("prediction = %+v", a.Prediction())
	}
	want := "Metabolic and Endocrine Disorders (e.g., diabetes, thyroid issues)"
	if a.Description != want {
		t.Errorf("Description = %q, want %q", a.Description, want)
	}
	if a.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("ID not set")
	}
}

func TestAnalyzeUnknownLabel(t *testing.T) {
	cls := &stubClassifier{preds: []model.Prediction{{Label: "LABEL_42", Score: 0.5}}}
	a, err := New(cls).Analyze("note")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if a.Description != labelmap.Unknown {
		t.Errorf("Description = %q, want %q", a.Description, labelmap.Unknown)
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	cls := &stubClassifier{preds: []model.Prediction{{Label: "LABEL_0", Score: 1}}}
	eng := New(cls)

	for _, in := range []string{"", " ", "\n\t  \r\n"} {
		if _, err := eng.Analyze(in); !errors.Is(err, ErrEmptyInput) {
			t.Errorf("Analyze(%q) err = %v, want ErrEmptyInput", in, err)
		}
	}
	if len(cls.calls) != 0 {
		t.Errorf("classifier called %d times for empty input", len(cls.calls))
	}
}

func TestAnalyzePropagatesInferenceError(t *testing.T) {
	boom := errors.New("session run failed")
	_, err := New(&stubClassifier{err: boom}).Analyze("note")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestAnalyzeDuration(t *testing.T) {
	cls := &stubClassifier{preds: []model.Prediction{{Label: "LABEL_1", Score: 0.9}}}
	eng := New(cls)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := 0
	eng.now = func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * 25 * time.Millisecond)
	}

	a, err := eng.Analyze("note")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if a.Duration != 25*time.Millisecond {
		t.Errorf("Duration = %v, want 25ms", a.Duration)
	}
}

func TestAnalyzeTruncatedFlag(t *testing.T) {
	cls := &stubClassifier{preds: []model.Prediction{{Label: "LABEL_1", Score: 0.9, Truncated: true}}}
	a, err := New(cls).Analyze(strings.Repeat("word ", 2000))
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if !a.Truncated {
		t.Error("Truncated not propagated")
	}
}

func TestAnalyzeBatch(t *testing.T) {
	cls := &stubClassifier{preds: []model.Prediction{
		{Label: "LABEL_0", Score: 0.7},
		{Label: "LABEL_1", Score: 0.6},
	}}
	eng := New(cls)

	out, err := eng.AnalyzeBatch([]string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("AnalyzeBatch() error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	if len(cls.calls) != 1 {
		t.Errorf("classifier called %d times, want one batched call", len(cls.calls))
	}
	if out[1].Description != labelmap.Lookup("LABEL_1") {
		t.Errorf("out[1].Description = %q", out[1].Description)
	}
	if out[0].ID == out[2].ID {
		t.Error("analyses share an ID")
	}
}

func TestAnalyzeBatchRejectsEmptyNote(t *testing.T) {
	cls := &stubClassifier{preds: []model.Prediction{{Label: "LABEL_0", Score: 1}}}
	_, err := New(cls).AnalyzeBatch([]string{"ok", "  "})
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
	if len(cls.calls) != 0 {
		t.Error("classifier should not run")
	}
}

func TestAnalyzeEmptyBatch(t *testing.T) {
	out, err := New(&stubClassifier{}).AnalyzeBatch(nil)
	if err != nil {
		t.Fatalf("AnalyzeBatch(nil) error: %v", err)
	}
	if out != nil {
		t.Errorf("expected nil, got %d analyses", len(out))
	}
}

// newModelEngine loads the classifier in CLINOTE_TEST_MODEL_DIR through the
// offline resolver. Intended for integration tests only.
func newModelEngine(t *testing.T) *Engine {
	t.Helper()
	dir := os.Getenv("CLINOTE_TEST_MODEL_DIR")
	if dir == "" {
		t.Skip("CLINOTE_TEST_MODEL_DIR not set, skipping integration test")
	}
	cls, _, err := loader.NewResolver(loader.Config{Offline: true}).Load(context.Background(), dir, textclass.Options{})
	if err != nil {
		t.Fatalf("load model: %v", err)
	}
	t.Cleanup(func() { cls.Close() })
	return New(cls)
}

func TestCorpusBatchConsistency(t *testing.T) {
	eng := newModelEngine(t)

	corpus, err := testdata.LoadCorpus()
	if err != nil {
		t.Fatalf("LoadCorpus() error: %v", err)
	}

	batched, err := eng.AnalyzeBatch(testdata.Texts(corpus))
	if err != nil {
		t.Fatalf("AnalyzeBatch() error: %v", err)
	}

	matched := 0
	for i, entry := range corpus {
		single, err := eng.Analyze(entry.Text)
		if err != nil {
			t.Fatalf("Analyze(%q) error: %v", entry.Description, err)
		}
		if batched[i].Label != single.Label {
			t.Errorf("%-28s batch=%s single=%s", entry.Description, batched[i].Label, single.Label)
		}
		// Padding to the longest note shifts scores slightly.
		if d := batched[i].Score - single.Score; d < -0.05 || d > 0.05 {
			t.Errorf("%-28s score diverged: batch=%.4f single=%.4f", entry.Description, batched[i].Score, single.Score)
		}
		if single.Label == entry.Category {
			matched++
		}
		t.Logf("%-28s -> %s (%.3f) %s", entry.Description, single.Label, single.Score, single.Description)
	}
	t.Logf("%d/%d notes matched their target category", matched, len(corpus))
}
