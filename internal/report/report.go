// Package report renders an analysis as the fixed three-line text report.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/crimson-sun/clinote/internal/model"
)

// Lines is the number of lines Format always produces.
const Lines = 3

// Format renders a as:
//
//	Raw Model Output: {'label': 'LABEL_2', 'score': 0.8734}
//	Interpreted Prediction: Metabolic and Endocrine Disorders (e.g., diabetes, thyroid issues)
//	Confidence Score: 87.34%
//
// The result has no trailing newline.
func Format(a model.Analysis) string {
	return strings.Join([]string{
		"Raw Model Output: " + RawOutput(a.Prediction()),
		"Interpreted Prediction: " + a.Description,
		"Confidence Score: " + Confidence(a.Score),
	}, "\n")
}

// RawOutput renders the label/score pair as a dict literal.
func RawOutput(p model.Prediction) string {
	return fmt.Sprintf("{'label': %s, 'score': %s}", quote(p.Label), formatScore(p.Score))
}

// Confidence renders score as a percentage with two decimals.
func Confidence(score float64) string {
	return fmt.Sprintf("%.2f%%", score*100)
}

// formatScore uses the shortest representation that round-trips, and always
// keeps a decimal point or exponent so 1 prints as 1.0.
func formatScore(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

func quote(s string) string {
	q := "'"
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		q = `"`
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	if q == "'" {
		s = strings.ReplaceAll(s, "'", `\'`)
	}
	return q + s + q
}
