package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Commands recognised on a line of their own.
const (
	CmdAnalyze = ":analyze"
	CmdClear   = ":clear"
	CmdQuit    = ":quit"
)

// Header is the text-box caption drawn above the output area.
const Header = "Health Data: (type or paste the clinical notes or patient report, " +
	"blank lines included; " + CmdAnalyze + " on its own line to analyze, " + CmdQuit + " to exit)"

// REPL drives a Shell from line-oriented input. Lines, blank ones included,
// accumulate into the text input until CmdAnalyze triggers analysis. Text
// still pending at EOF is analyzed before Run returns.
type REPL struct {
	shell *Shell
	out   io.Writer

	// Recoverable decides which Trigger errors are shown in the output
	// area instead of ending the loop. nil treats every error as fatal.
	Recoverable func(error) bool
}

// NewREPL creates a REPL that prompts on out.
func NewREPL(s *Shell, out io.Writer) *REPL {
	return &REPL{shell: s, out: out}
}

// Run reads from in until EOF, CmdQuit, or ctx is done. A non-recoverable
// Trigger error is returned as is.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	fmt.Fprintf(r.out, "%s\n[default] %s\n> ", Header, r.shell.Input())
	var buf []string
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimRight(sc.Text(), "\r")

		switch strings.TrimSpace(line) {
		case CmdQuit:
			return nil
		case CmdClear:
			buf = buf[:0]
			fmt.Fprint(r.out, "> ")
			continue
		case CmdAnalyze:
			if err := r.flush(buf); err != nil {
				return err
			}
			buf = buf[:0]
			fmt.Fprint(r.out, "> ")
			continue
		case "":
			if len(buf) == 0 {
				fmt.Fprint(r.out, "> ")
				continue
			}
		}
		buf = append(buf, line)
		fmt.Fprint(r.out, "  ")
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if len(buf) > 0 {
		return r.flush(buf)
	}
	return nil
}

// flush analyzes the buffered lines, or the current input when none are
// buffered. Trailing blank lines are dropped.
func (r *REPL) flush(buf []string) error {
	for len(buf) > 0 && strings.TrimSpace(buf[len(buf)-1]) == "" {
		buf = buf[:len(buf)-1]
	}
	if len(buf) > 0 {
		r.shell.SetInput(strings.Join(buf, "\n"))
	}
	return r.trigger()
}

func (r *REPL) trigger() error {
	err := r.shell.Trigger()
	if err == nil {
		return nil
	}
	if r.Recoverable != nil && r.Recoverable(err) {
		return r.shell.display.Replace("Error: " + err.Error())
	}
	return err
}
