package shell

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/clinote/internal/engine/labelmap"
	"github.com/crimson-sun/clinote/internal/model"
	"github.com/crimson-sun/clinote/internal/report"
)

// fakeAnalyzer maps inputs to canned labels and records states seen during
// analysis.
type fakeAnalyzer struct {
	labels map[string]string
	err    error
	shell  *Shell
	seen   []State
	inputs []string
}

func (f *fakeAnalyzer) Analyze(text string) (model.Analysis, error) {
	f.inputs = append(f.inputs, text)
	if f.shell != nil {
		f.seen = append(f.seen, f.shell.State())
	}
	if f.err != nil {
		return model.Analysis{}, f.err
	}
	label := f.labels[text]
	return model.Analysis{Label: label, Score: 0.8734, Description: labelmap.Lookup(label)}, nil
}

func newTestShell(t *testing.T, f *fakeAnalyzer) (*Shell, *Area) {
	t.Helper()
	area := &Area{}
	s := New(f, area)
	f.shell = s
	return s, area
}

func TestShellInitialState(t *testing.T) {
	s, area := newTestShell(t, &fakeAnalyzer{})
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, DefaultInput, s.Input())
	assert.Empty(t, area.Content())
	_, ok := s.Last()
	assert.False(t, ok)
}

func TestShellTriggerDisplaysReport(t *testing.T) {
	f := &fakeAnalyzer{labels: map[string]string{"A": "LABEL_2"}}
	s, area := newTestShell(t, f)

	s.SetInput("A")
	require.NoError(t, s.Trigger())

	assert.Equal(t, Displaying, s.State())
	assert.Equal(t, []State{Analyzing}, f.seen)
	lines := strings.Split(area.Content(), "\n")
	require.Len(t, lines, report.Lines)
	assert.Equal(t, "Interpreted Prediction: Metabolic and Endocrine Disorders (e.g., diabetes, thyroid issues)", lines[1])
	assert.Equal(t, "Confidence Score: 87.34%", lines[2])

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, "LABEL_2", last.Label)
}

func TestShellSecondTriggerReplaces(t *testing.T) {
	f := &fakeAnalyzer{labels: map[string]string{"A": "LABEL_1", "B": "LABEL_3"}}
	s, area := newTestShell(t, f)

	s.SetInput("A")
	require.NoError(t, s.Trigger())
	reportA := area.Content()

	s.SetInput("B")
	assert.Equal(t, Idle, s.State(), "editing input returns to idle")
	require.NoError(t, s.Trigger())
	reportB := area.Content()

	assert.NotEqual(t, reportA, reportB)
	assert.NotContains(t, reportB, labelmap.Lookup("LABEL_1"))
	assert.Contains(t, reportB, labelmap.Lookup("LABEL_3"))
	assert.Len(t, strings.Split(reportB, "\n"), report.Lines)
}

func TestShellTriggerDefaultInput(t *testing.T) {
	f := &fakeAnalyzer{}
	s, area := newTestShell(t, f)

	require.NoError(t, s.Trigger())
	assert.Equal(t, []string{DefaultInput}, f.inputs)
	assert.Contains(t, area.Content(), "Interpreted Prediction: Unknown Condition")
}

func TestShellErrorClearsDisplay(t *testing.T) {
	f := &fakeAnalyzer{labels: map[string]string{"A": "LABEL_0"}}
	s, area := newTestShell(t, f)

	s.SetInput("A")
	require.NoError(t, s.Trigger())
	require.NotEmpty(t, area.Content())

	boom := errors.New("inference failed")
	f.err = boom
	err := s.Trigger()
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, area.Content())
	assert.Equal(t, Idle, s.State())
	_, ok := s.Last()
	assert.False(t, ok)
}

type failingDisplay struct{ err error }

func (d failingDisplay) Replace(string) error { return d.err }

func TestShellDisplayError(t *testing.T) {
	derr := errors.New("closed pipe")
	s := New(&fakeAnalyzer{}, failingDisplay{err: derr})
	assert.ErrorIs(t, s.Trigger(), derr)
	assert.Equal(t, Idle, s.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "analyzing", Analyzing.String())
	assert.Equal(t, "displaying", Displaying.String())
	assert.Equal(t, "unknown", State(9).String())
}

func TestTerminalReplaceOnPipe(t *testing.T) {
	var buf bytes.Buffer
	d := NewTerminal(&buf, Header)
	require.NoError(t, d.Replace("one"))
	require.NoError(t, d.Replace("two"))

	out := buf.String()
	assert.NotContains(t, out, clearScreen, "a buffer is not a terminal")
	assert.Equal(t, 2, strings.Count(out, strings.Repeat("-", 40)))
	assert.True(t, strings.HasSuffix(out, "two\n"))
}

func TestTerminalReplaceClears(t *testing.T) {
	var buf bytes.Buffer
	d := &Terminal{w: &buf, header: "hdr", clear: true}
	require.NoError(t, d.Replace("report"))
	assert.Equal(t, clearScreen+"hdr\n\nreport\n", buf.String())
}

func TestREPL(t *testing.T) {
	f := &fakeAnalyzer{labels: map[string]string{
		"chest pain\nBP 180/110": "LABEL_1",
		"wheezing":               "LABEL_3",
	}}
	s, area := newTestShell(t, f)
	var out bytes.Buffer

	in := strings.Join([]string{
		"",
		"chest pain",
		"BP 180/110",
		CmdAnalyze,
		"wheezing",
		CmdAnalyze,
		CmdQuit,
		"never read",
	}, "\n")
	require.NoError(t, NewREPL(s, &out).Run(context.Background(), strings.NewReader(in)))

	assert.Equal(t, []string{"chest pain\nBP 180/110", "wheezing"}, f.inputs)
	assert.Contains(t, area.Content(), labelmap.Lookup("LABEL_3"))
	assert.NotContains(t, area.Content(), labelmap.Lookup("LABEL_1"))
	assert.Contains(t, out.String(), DefaultInput)
}

func TestREPLKeepsBlankLinesInNote(t *testing.T) {
	f := &fakeAnalyzer{}
	s, _ := newTestShell(t, f)

	in := "History:\nasthma since childhood\n\nExam:\nexpiratory wheeze\n\n" + CmdAnalyze + "\n"
	require.NoError(t, NewREPL(s, &bytes.Buffer{}).Run(context.Background(), strings.NewReader(in)))
	assert.Equal(t, []string{"History:\nasthma since childhood\n\nExam:\nexpiratory wheeze"}, f.inputs)
}

func TestREPLAnalyzeWithoutTextUsesCurrentInput(t *testing.T) {
	f := &fakeAnalyzer{}
	s, _ := newTestShell(t, f)

	require.NoError(t, NewREPL(s, &bytes.Buffer{}).Run(context.Background(), strings.NewReader("\n"+CmdAnalyze+"\n")))
	assert.Equal(t, []string{DefaultInput}, f.inputs)
}

func TestREPLAnalyzesPendingTextAtEOF(t *testing.T) {
	f := &fakeAnalyzer{}
	s, _ := newTestShell(t, f)

	require.NoError(t, NewREPL(s, &bytes.Buffer{}).Run(context.Background(), strings.NewReader("fever\ncough\n")))
	assert.Equal(t, []string{"fever\ncough"}, f.inputs)
}

func TestREPLClearDiscardsBuffer(t *testing.T) {
	f := &fakeAnalyzer{}
	s, _ := newTestShell(t, f)

	in := "typo\n" + CmdClear + "\nfixed\n" + CmdAnalyze + "\n"
	require.NoError(t, NewREPL(s, &bytes.Buffer{}).Run(context.Background(), strings.NewReader(in)))
	assert.Equal(t, []string{"fixed"}, f.inputs)
}

func TestREPLRecoverableError(t *testing.T) {
	soft := errors.New("input text is empty")
	f := &fakeAnalyzer{err: soft}
	s, area := newTestShell(t, f)
	r := NewREPL(s, &bytes.Buffer{})
	r.Recoverable = func(err error) bool { return errors.Is(err, soft) }

	require.NoError(t, r.Run(context.Background(), strings.NewReader("x\n"+CmdAnalyze+"\n")))
	assert.Equal(t, "Error: input text is empty", area.Content())
}

func TestREPLFatalError(t *testing.T) {
	boom := errors.New("session run failed")
	f := &fakeAnalyzer{err: boom}
	s, _ := newTestShell(t, f)

	err := NewREPL(s, &bytes.Buffer{}).Run(context.Background(), strings.NewReader("x\n"+CmdAnalyze+"\nmore\n"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"x"}, f.inputs)
}

func TestREPLContextCancelled(t *testing.T) {
	s, _ := newTestShell(t, &fakeAnalyzer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewREPL(s, &bytes.Buffer{}).Run(ctx, strings.NewReader("x\n"))
	assert.ErrorIs(t, err, context.Canceled)
}
