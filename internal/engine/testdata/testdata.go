// Package testdata embeds a small corpus of synthetic clinical notes with the
// disease category each one is written to exercise.
package testdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed corpus.json
var corpusJSON []byte

// CorpusEntry is a clinical note paired with the label it targets.
type CorpusEntry struct {
	Text        string `json:"text"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// LoadCorpus parses the embedded corpus.json and returns all entries.
func LoadCorpus() ([]CorpusEntry, error) {
	var entries []CorpusEntry
	if err := json.Unmarshal(corpusJSON, &entries); err != nil {
		return nil, fmt.Errorf("parse corpus.json: %w", err)
	}
	return entries, nil
}

// Texts returns only the note bodies, in corpus order.
func Texts(entries []CorpusEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}
