package clinote

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
)

// testModelDir points at an exported classifier; model-backed tests skip
// without it.
var testModelDir = os.Getenv("CLINOTE_TEST_MODEL_DIR")

func skipWithoutModel(t *testing.T) {
	t.Helper()
	if testModelDir == "" {
		t.Skip("CLINOTE_TEST_MODEL_DIR not set, skipping integration test")
	}
}

func newTestClinote(t *testing.T) *Clinote {
	t.Helper()
	skipWithoutModel(t)
	c, err := New(context.Background(), WithModelDir(testModelDir))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNewBadPathReturnsError(t *testing.T) {
	_, err := New(context.Background(), WithModelDir("/nonexistent/path"), WithCacheDir(t.TempDir()))
	if err == nil {
		t.Fatal("expected error for bad model path, got nil")
	}
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestNewOfflineNotCached(t *testing.T) {
	_, err := New(context.Background(),
		WithModel("org/never-downloaded"),
		WithOffline(true),
		WithCacheDir(t.TempDir()),
	)
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestOptions(t *testing.T) {
	o := defaultOptions()
	if o.model == "" || o.endpoint == "" {
		t.Fatalf("defaults not set: %+v", o)
	}
	for _, opt := range []Option{
		WithModelDir("/models/x"),
		WithRevision("v1"),
		WithHub("http://mirror", "tok"),
		WithFiles("*.onnx", "vocab.txt"),
		WithRuntime("/lib/libonnxruntime.so", 2),
		WithMaxSeqLen(128),
	} {
		opt(&o)
	}
	if o.model != "/models/x" || !o.offline {
		t.Errorf("WithModelDir: model=%q offline=%v", o.model, o.offline)
	}
	if o.revision != "v1" || o.endpoint != "http://mirror" || o.token != "tok" {
		t.Errorf("hub options not applied: %+v", o)
	}
	if len(o.patterns) != 2 || o.threads != 2 || o.maxSeqLen != 128 {
		t.Errorf("runtime options not applied: %+v", o)
	}
}

func TestLabels(t *testing.T) {
	labels := Labels()
	if len(labels) != 10 {
		t.Fatalf("expected 10 labels, got %d", len(labels))
	}
	if labels[0].Name != "LABEL_0" || labels[9].Name != "LABEL_9" {
		t.Errorf("unexpected order: %s..%s", labels[0].Name, labels[9].Name)
	}
	labels[0].Description = "mutated"
	if Labels()[0].Description == "mutated" {
		t.Error("Labels() must return a copy")
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe("LABEL_4"); got != "Neurological Conditions (e.g., stroke, epilepsy)" {
		t.Errorf("Describe(LABEL_4) = %q", got)
	}
	if got := Describe("LABEL_10"); got != Unknown {
		t.Errorf("Describe(LABEL_10) = %q, want %q", got, Unknown)
	}
}

func TestResultString(t *testing.T) {
	r := Result{Label: "LABEL_2", Score: 0.8734, Description: Describe("LABEL_2")}
	want := "Raw Model Output: {'label': 'LABEL_2', 'score': 0.8734}\n" +
		"Interpreted Prediction: Metabolic and Endocrine Disorders (e.g., diabetes, thyroid issues)\n" +
		"Confidence Score: 87.34%"
	if r.String() != want {
		t.Errorf("String() =\n%s\nwant\n%s", r.String(), want)
	}
	if r.Confidence() != "87.34%" {
		t.Errorf("Confidence() = %q", r.Confidence())
	}
}

func TestAnalyze(t *testing.T) {
	c := newTestClinote(t)

	r, err := c.Analyze("Sudden onset right-sided weakness and aphasia, CT shows left MCA infarct.")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if r.Score <= 0 || r.Score > 1 {
		t.Errorf("Score = %f, want (0,1]", r.Score)
	}
	if r.Description != Describe(r.Label) {
		t.Errorf("Description %q does not match label %s", r.Description, r.Label)
	}
	if len(strings.Split(r.String(), "\n")) != 3 {
		t.Errorf("report is not three lines: %q", r.String())
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	c := newTestClinote(t)
	if _, err := c.Analyze("   "); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestAnalyzeBatchMatchesIndividual(t *testing.T) {
	c := newTestClinote(t)

	texts := []string{
		"BP 168/102 on two readings, poorly controlled on lisinopril.",
		"Wheezing and shortness of breath, uses albuterol inhaler.",
		"Fever, myalgia, rapid influenza test positive.",
	}
	batch, err := c.AnalyzeBatch(texts)
	if err != nil {
		t.Fatalf("AnalyzeBatch() error: %v", err)
	}
	for i, text := range texts {
		single, err := c.Analyze(text)
		if err != nil {
			t.Fatalf("Analyze() error: %v", err)
		}
		if batch[i].Label != single.Label {
			t.Errorf("[%d] batch=%s single=%s", i, batch[i].Label, single.Label)
		}
	}
}

func TestConcurrentAnalyze(t *testing.T) {
	c := newTestClinote(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Analyze("Chest pain radiating to left arm."); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Analyze() error: %v", err)
	}
}
