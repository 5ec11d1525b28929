package textclass

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxSeqLen is the BERT context limit used when the model config
// does not declare one.
const DefaultMaxSeqLen = 512

// maxWordChars is the longest basic token WordPiece will try to split.
const maxWordChars = 100

// encoding is one tokenized sequence without padding.
type encoding struct {
	ids       []int64
	truncated bool
}

// batch holds flat [batchSize * seqLen] tensors ready for the session.
type batch struct {
	inputIDs      []int64
	attentionMask []int64
	tokenTypeIDs  []int64
	batchSize     int64
	seqLen        int64
	truncated     []bool
}

// tokenizer performs BERT-style BasicTokenizer + WordPiece tokenization.
type tokenizer struct {
	vocab  *vocab
	maxLen int  // includes [CLS] and [SEP]
	lower  bool // do_lower_case; also strips accents
}

func newTokenizer(v *vocab, maxLen int, lower bool) *tokenizer {
	if maxLen < 2 {
		maxLen = DefaultMaxSeqLen
	}
	return &tokenizer{vocab: v, maxLen: maxLen, lower: lower}
}

// encode produces [CLS] tokens... [SEP], cutting tokens that do not fit
// in maxLen.
func (t *tokenizer) encode(text string) encoding {
	pieces := t.wordpiece(t.basicTokenize(text))

	enc := encoding{}
	if limit := t.maxLen - 2; len(pieces) > limit {
		pieces = pieces[:limit]
		enc.truncated = true
	}

	enc.ids = make([]int64, 0, len(pieces)+2)
	enc.ids = append(enc.ids, t.vocab.clsID)
	for _, p := range pieces {
		enc.ids = append(enc.ids, t.vocab.id(p))
	}
	enc.ids = append(enc.ids, t.vocab.sepID)
	return enc
}

// encodeBatch tokenizes texts and pads them to the longest sequence.
func (t *tokenizer) encodeBatch(texts []string) batch {
	if len(texts) == 0 {
		return batch{}
	}

	encs := make([]encoding, len(texts))
	longest := 0
	for i, text := range texts {
		encs[i] = t.encode(text)
		if n := len(encs[i].ids); n > longest {
			longest = n
		}
	}

	b := batch{
		batchSize: int64(len(texts)),
		seqLen:    int64(longest),
		truncated: make([]bool, len(texts)),
	}
	total := len(texts) * longest
	b.inputIDs = make([]int64, total)
	b.attentionMask = make([]int64, total)
	b.tokenTypeIDs = make([]int64, total)

	for i, enc := range encs {
		row := i * longest
		for j := 0; j < longest; j++ {
			if j < len(enc.ids) {
				b.inputIDs[row+j] = enc.ids[j]
				b.attentionMask[row+j] = 1
			} else {
				b.inputIDs[row+j] = t.vocab.padID
			}
		}
		b.truncated[i] = enc.truncated
	}
	return b
}

// basicTokenize cleans text, isolates CJK characters, optionally lowercases
// and strips accents, then splits on whitespace and punctuation.
func (t *tokenizer) basicTokenize(text string) []string {
	text = isolateCJK(cleanText(text))
	if t.lower {
		text = stripAccents(strings.ToLower(text))
	}

	var tokens []string
	for _, word := range strings.Fields(text) {
		tokens = append(tokens, splitPunctuation(word)...)
	}
	return tokens
}

func (t *tokenizer) wordpiece(words []string) []string {
	var out []string
	for _, w := range words {
		out = append(out, t.splitWord(w)...)
	}
	return out
}

// splitWord applies greedy longest-match-first WordPiece to one word.
// A word with any unmatched remainder becomes a single [UNK].
func (t *tokenizer) splitWord(word string) []string {
	runes := []rune(word)
	if len(runes) > maxWordChars {
		return []string{"[UNK]"}
	}

	var pieces []string
	for start := 0; start < len(runes); {
		end := len(runes)
		match := ""
		for ; end > start; end-- {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if t.vocab.has(sub) {
				match = sub
				break
			}
		}
		if match == "" {
			return []string{"[UNK]"}
		}
		pieces = append(pieces, match)
		start = end
	}
	return pieces
}

func cleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == 0 || r == unicode.ReplacementChar || isControl(r):
		case isWhitespace(r):
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripAccents drops combining marks after NFD decomposition.
func stripAccents(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range norm.NFD.String(text) {
		if !unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isolateCJK(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isCJK(r) {
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// splitPunctuation emits every punctuation rune as its own token.
func splitPunctuation(word string) []string {
	var tokens []string
	start := -1
	for i, r := range word {
		if isPunctuation(r) {
			if start >= 0 {
				tokens = append(tokens, word[start:i])
				start = -1
			}
			tokens = append(tokens, string(r))
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, word[start:])
	}
	return tokens
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return unicode.IsControl(r)
}

// isPunctuation treats every non-alphanumeric ASCII symbol as punctuation,
// plus the Unicode P* categories.
func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) ||
		(r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0x2A700 && r <= 0x2B73F) ||
		(r >= 0x2B740 && r <= 0x2B81F) ||
		(r >= 0x2B820 && r <= 0x2CEAF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x2F800 && r <= 0x2FA1F)
}
