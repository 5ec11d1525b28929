package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/crimson-sun/clinote/internal/model"
	"github.com/crimson-sun/clinote/internal/output"
	"github.com/crimson-sun/clinote/internal/report"
)

// Output writes analyses to a stream, usually os.Stdout.
type Output struct {
	w      io.Writer
	enc    *json.Encoder
	format output.Format
	n      int
}

// New creates an Output. pretty indents JSON and is ignored for reports.
func New(w io.Writer, format output.Format, pretty bool) *Output {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &Output{w: w, enc: enc, format: format}
}

// Write renders one analysis. Reports after the first are preceded by a
// blank line.
func (o *Output) Write(_ context.Context, a model.Analysis) error {
	var err error
	switch o.format {
	case output.JSON:
		err = o.enc.Encode(a)
	default:
		sep := ""
		if o.n > 0 {
			sep = "\n"
		}
		_, err = fmt.Fprintf(o.w, "%s%s\n", sep, report.Format(a))
	}
	if err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	o.n++
	return nil
}

func (o *Output) Close() error {
	return nil
}
