// Package textclass runs single-label sequence classification over a local
// BERT-style ONNX export: tokenize, infer, softmax, pick the top label.
package textclass

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/crimson-sun/clinote/internal/model"
)

// Classifier scores text against a fixed label set.
type Classifier interface {
	Predict(text string) (model.Prediction, error)
	PredictBatch(texts []string) ([]model.Prediction, error)
	Labels() []string
	Close() error
}

// Options tune session creation. Zero values pick defaults.
type Options struct {
	LibPath   string // onnxruntime shared library
	Threads   int    // intra-op threads, default physical cores
	MaxSeqLen int    // overrides the model's declared context limit
}

// ONNXClassifier is a Classifier backed by ONNX Runtime. Safe for
// concurrent use; the tokenizer and session are read-only after New.
type ONNXClassifier struct {
	session *onnxSession
	tok     *tokenizer
	labels  []string
}

// New loads the vocabulary, configs, and ONNX graph named by files.
func New(files model.ModelFiles, opts Options) (*ONNXClassifier, error) {
	var mc modelConfig
	if err := readJSON(files.Config, &mc); err != nil {
		return nil, fmt.Errorf("textclass: %w", err)
	}
	var tc tokenizerConfig
	if err := readJSON(files.TokenizerConfig, &tc); err != nil {
		return nil, fmt.Errorf("textclass: %w", err)
	}

	v, err := loadVocab(files.Vocab)
	if err != nil {
		return nil, fmt.Errorf("textclass: %w", err)
	}
	lower := true
	if tc.DoLowerCase != nil {
		lower = *tc.DoLowerCase
	}
	tok := newTokenizer(v, maxSeqLen(opts.MaxSeqLen, mc, tc), lower)

	sess, err := newONNXSession(files.Model, libPath(opts.LibPath, files.Dir), opts.Threads)
	if err != nil {
		return nil, fmt.Errorf("textclass: %w", err)
	}

	labels := mc.labelNames(int(sess.numLabels))
	if len(labels) == 0 {
		sess.close()
		return nil, fmt.Errorf("textclass: cannot determine label count from %s or config.json", files.Model)
	}
	if sess.numLabels > 0 && int(sess.numLabels) != len(labels) {
		sess.close()
		return nil, fmt.Errorf("textclass: model emits %d labels, config declares %d", sess.numLabels, len(labels))
	}

	return &ONNXClassifier{session: sess, tok: tok, labels: labels}, nil
}

// libPath falls back to a runtime library shipped next to the model.
func libPath(explicit, modelDir string) string {
	if explicit != "" {
		return explicit
	}
	if modelDir == "" {
		return ""
	}
	candidate := filepath.Join(modelDir, "libonnxruntime.so")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

// Predict returns the top label for a single text. Input longer than the
// context limit is truncated, never rejected.
func (c *ONNXClassifier) Predict(text string) (model.Prediction, error) {
	preds, err := c.PredictBatch([]string{text})
	if err != nil {
		return model.Prediction{}, err
	}
	return preds[0], nil
}

// PredictBatch scores several texts in one inference call.
func (c *ONNXClassifier) PredictBatch(texts []string) ([]model.Prediction, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	b := c.tok.encodeBatch(texts)
	n := int64(len(c.labels))
	logits, err := c.session.infer(b, n)
	if err != nil {
		return nil, fmt.Errorf("textclass: %w", err)
	}
	return decode(logits, c.labels, b.truncated), nil
}

// Labels returns the label names in model index order.
func (c *ONNXClassifier) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// MaxSeqLen reports the context limit in tokens, including [CLS] and [SEP].
func (c *ONNXClassifier) MaxSeqLen() int {
	return c.tok.maxLen
}

// Close releases ONNX Runtime resources.
func (c *ONNXClassifier) Close() error {
	if c.session != nil {
		return c.session.close()
	}
	return nil
}

// decode turns flat [batch * len(labels)] logits into one prediction per row.
func decode(logits []float32, labels []string, truncated []bool) []model.Prediction {
	n := len(labels)
	preds := make([]model.Prediction, len(truncated))
	for i := range preds {
		probs := softmax(logits[i*n : (i+1)*n])
		top := argmax(probs)
		preds[i] = model.Prediction{
			Label:     labels[top],
			Score:     probs[top],
			Truncated: truncated[i],
		}
	}
	return preds
}
