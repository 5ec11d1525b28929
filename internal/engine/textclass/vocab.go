package textclass

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// vocab is a WordPiece vocabulary. Token IDs are 0-indexed line numbers.
type vocab struct {
	ids    map[string]int64
	tokens []string

	padID int64
	unkID int64
	clsID int64
	sepID int64
}

func loadVocab(path string) (*vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: %w", err)
	}
	defer f.Close()

	v, err := parseVocab(f)
	if err != nil {
		return nil, fmt.Errorf("vocab %s: %w", path, err)
	}
	return v, nil
}

// parseVocab reads one token per line. Trailing carriage returns from
// Windows-edited files are dropped.
func parseVocab(r io.Reader) (*vocab, error) {
	v := &vocab{ids: make(map[string]int64, 32000)}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		tok := strings.TrimRight(scanner.Text(), "\r")
		if _, dup := v.ids[tok]; !dup {
			v.ids[tok] = int64(len(v.tokens))
		}
		v.tokens = append(v.tokens, tok)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}
	if len(v.tokens) == 0 {
		return nil, fmt.Errorf("empty vocabulary")
	}

	for _, s := range []struct {
		name string
		dest *int64
	}{
		{"[PAD]", &v.padID},
		{"[UNK]", &v.unkID},
		{"[CLS]", &v.clsID},
		{"[SEP]", &v.sepID},
	} {
		id, ok := v.ids[s.name]
		if !ok {
			return nil, fmt.Errorf("missing special token %s", s.name)
		}
		*s.dest = id
	}
	return v, nil
}

// id returns the token ID, or [UNK] when the token is unknown.
func (v *vocab) id(token string) int64 {
	if id, ok := v.ids[token]; ok {
		return id
	}
	return v.unkID
}

func (v *vocab) has(token string) bool {
	_, ok := v.ids[token]
	return ok
}

func (v *vocab) size() int {
	return len(v.tokens)
}
