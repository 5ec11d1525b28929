package textclass

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// modelConfig is the subset of a transformers config.json this package
// reads. Zero values mean "not declared".
type modelConfig struct {
	ID2Label              map[string]string `json:"id2label"`
	NumLabels             int               `json:"num_labels"`
	MaxPositionEmbeddings int               `json:"max_position_embeddings"`
}

// tokenizerConfig is the subset of tokenizer_config.json this package reads.
type tokenizerConfig struct {
	DoLowerCase    *bool   `json:"do_lower_case"`
	ModelMaxLength float64 `json:"model_max_length"`
}

// readJSON decodes path into dest. An empty path is not an error and
// leaves dest untouched.
func readJSON(path string, dest any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// labelNames returns index-ordered label names for n classes. Indices
// missing from id2label fall back to "LABEL_{i}", which is also what
// transformers generates when a checkpoint declares no names.
func (c modelConfig) labelNames(n int) []string {
	if n <= 0 {
		n = c.NumLabels
	}
	if n <= 0 {
		n = len(c.ID2Label)
	}
	names := make([]string, n)
	for i := range names {
		names[i] = "LABEL_" + strconv.Itoa(i)
	}
	keys := make([]string, 0, len(c.ID2Label))
	for k := range c.ID2Label {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || i >= n {
			continue
		}
		names[i] = c.ID2Label[k]
	}
	return names
}

// maxSeqLen picks the context limit: an explicit override wins, then the
// smaller of the declared model and tokenizer limits.
func maxSeqLen(override int, mc modelConfig, tc tokenizerConfig) int {
	if override > 0 {
		return override
	}
	limit := mc.MaxPositionEmbeddings
	// Tokenizers without a limit report a huge sentinel (1e30).
	if tc.ModelMaxLength > 0 && tc.ModelMaxLength < 1e6 {
		if tl := int(tc.ModelMaxLength); limit == 0 || tl < limit {
			limit = tl
		}
	}
	if limit <= 0 {
		return DefaultMaxSeqLen
	}
	return limit
}
