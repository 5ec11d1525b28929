package output

import (
	"fmt"
	"strings"
)

// Format selects how analyses are rendered.
type Format int

const (
	// Report is the three-line human report.
	Report Format = iota
	// JSON is one analysis object per line (NDJSON).
	JSON
)

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	default:
		return "report"
	}
}

// ParseFormat converts "report"/"text" or "json"/"ndjson" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "report", "text":
		return Report, nil
	case "json", "ndjson":
		return JSON, nil
	default:
		return Report, fmt.Errorf("unknown output format %q (want report or json)", s)
	}
}
