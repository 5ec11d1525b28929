package clinote

import (
	"context"
	"fmt"

	"github.com/crimson-sun/clinote/internal/engine"
	"github.com/crimson-sun/clinote/internal/engine/loader"
	"github.com/crimson-sun/clinote/internal/engine/textclass"
	"github.com/crimson-sun/clinote/internal/model"
)

// Errors returned by New and Analyze. Test with errors.Is.
var (
	ErrModelUnavailable = loader.ErrModelUnavailable
	ErrEmptyInput       = engine.ErrEmptyInput
)

// Clinote is a clinical-note classifier. Safe for concurrent use.
type Clinote struct {
	engine *engine.Engine
	cls    *textclass.ONNXClassifier
	files  model.ModelFiles
}

// New resolves the model (downloading it if needed), loads the tokenizer
// and ONNX session, and returns a ready classifier. This is expensive:
// create once, reuse across requests.
func New(ctx context.Context, opts ...Option) (*Clinote, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := loader.NewResolver(loader.Config{
		Endpoint: o.endpoint,
		Token:    o.token,
		Revision: o.revision,
		CacheDir: o.cacheDir,
		Offline:  o.offline,
		Patterns: o.patterns,
		Progress: o.progress,
	})
	cls, files, err := r.Load(ctx, o.model, textclass.Options{
		LibPath:   o.libPath,
		Threads:   o.threads,
		MaxSeqLen: o.maxSeqLen,
	})
	if err != nil {
		return nil, fmt.Errorf("clinote: %w", err)
	}
	return &Clinote{engine: engine.New(cls), cls: cls, files: files}, nil
}

// Analyze classifies a single note. Empty or whitespace-only text returns
// ErrEmptyInput.
func (c *Clinote) Analyze(text string) (Result, error) {
	a, err := c.engine.Analyze(text)
	if err != nil {
		return Result{}, err
	}
	return resultFromAnalysis(a), nil
}

// AnalyzeBatch classifies several notes in one inference call.
// More efficient than calling Analyze in a loop.
func (c *Clinote) AnalyzeBatch(texts []string) ([]Result, error) {
	as, err := c.engine.AnalyzeBatch(texts)
	if err != nil {
		return nil, err
	}
	out := make([]Result, len(as))
	for i, a := range as {
		out[i] = resultFromAnalysis(a)
	}
	return out, nil
}

// ModelLabels returns the raw labels the loaded model can emit.
func (c *Clinote) ModelLabels() []string {
	return c.engine.Labels()
}

// ModelDir is the directory the model was loaded from.
func (c *Clinote) ModelDir() string {
	return c.files.Dir
}

// Close releases model resources (ONNX session, tensors).
// Must be called when the Clinote instance is no longer needed.
func (c *Clinote) Close() error {
	return c.cls.Close()
}
