// Package shell is the interaction shell: one text input, one trigger, one
// output surface. A trigger runs the whole analysis synchronously and
// replaces whatever the output surface showed before.
package shell

import (
	"log/slog"

	"github.com/crimson-sun/clinote/internal/model"
	"github.com/crimson-sun/clinote/internal/report"
)

// DefaultInput is the initial value of the text input.
const DefaultInput = "Enter patient health data here..."

// State is the shell's position in the Idle → Analyzing → Displaying cycle.
type State int

const (
	Idle State = iota
	Analyzing
	Displaying
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Analyzing:
		return "analyzing"
	case Displaying:
		return "displaying"
	default:
		return "unknown"
	}
}

// Analyzer runs one analysis. *engine.Engine satisfies it.
type Analyzer interface {
	Analyze(text string) (model.Analysis, error)
}

// Display is an output surface. Replace must discard all earlier content
// before showing the new one; an empty string leaves the surface blank.
type Display interface {
	Replace(content string) error
}

// Shell wires an Analyzer to a Display. It is not safe for concurrent use;
// frontends that serve several clients serialize access themselves.
type Shell struct {
	analyzer Analyzer
	display  Display
	input    string
	state    State
	last     *model.Analysis
}

// New creates a Shell in the Idle state with DefaultInput as its input.
func New(a Analyzer, d Display) *Shell {
	return &Shell{analyzer: a, display: d, input: DefaultInput}
}

// SetInput replaces the text input value. Editing after a result has been
// shown returns the shell to Idle.
func (s *Shell) SetInput(text string) {
	s.input = text
	if s.state == Displaying {
		s.setState(Idle)
	}
}

// Input returns the current text input value.
func (s *Shell) Input() string { return s.input }

// State returns the current state.
func (s *Shell) State() State { return s.state }

// Last returns the analysis currently on display, if any.
func (s *Shell) Last() (model.Analysis, bool) {
	if s.last == nil {
		return model.Analysis{}, false
	}
	return *s.last, true
}

// Trigger analyzes the current input and replaces the display with the
// report. On failure the display is cleared, the shell returns to Idle, and
// the error is returned unchanged.
func (s *Shell) Trigger() error {
	s.setState(Analyzing)
	s.last = nil

	a, err := s.analyzer.Analyze(s.input)
	if err != nil {
		s.setState(Idle)
		if derr := s.display.Replace(""); derr != nil {
			slog.Warn("failed to clear display", "error", derr)
		}
		return err
	}

	if err := s.display.Replace(report.Format(a)); err != nil {
		s.setState(Idle)
		return err
	}
	s.last = &a
	s.setState(Displaying)
	slog.Debug("analysis displayed", "id", a.ID, "label", a.Label, "score", a.Score, "input_len", len(s.input), "duration", a.Duration)
	return nil
}

func (s *Shell) setState(next State) {
	if s.state != next {
		slog.Debug("shell state", "from", s.state, "to", next)
	}
	s.state = next
}
