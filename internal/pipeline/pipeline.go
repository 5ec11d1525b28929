// Package pipeline feeds many notes through the engine in batches and
// writes each analysis to an output.
package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/crimson-sun/clinote/internal/model"
	"github.com/crimson-sun/clinote/internal/output"
)

// DefaultBatchSize is the number of notes sent to one inference call.
const DefaultBatchSize = 16

// Analyzer is the subset of *engine.Engine the pipeline uses.
type Analyzer interface {
	AnalyzeBatch(texts []string) ([]model.Analysis, error)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBatchSize sets the maximum notes per inference call.
func WithBatchSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithWindow sets how long Stream waits for a batch to fill before
// analyzing what it has. Zero waits for a full batch or EOF.
func WithWindow(d time.Duration) Option {
	return func(p *Pipeline) { p.window = d }
}

// Pipeline connects an analyzer and an output.
type Pipeline struct {
	analyzer  Analyzer
	output    output.Output
	batchSize int
	window    time.Duration

	analyzed atomic.Int64
	skipped  atomic.Int64
}

// New creates a Pipeline from the given components.
func New(a Analyzer, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{
		analyzer:  a,
		output:    out,
		batchSize: DefaultBatchSize,
		window:    200 * time.Millisecond,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run analyzes notes in batches, in order. Blank notes are skipped.
// Inference errors stop the run and are returned.
func (p *Pipeline) Run(ctx context.Context, notes []string) error {
	batch := make([]string, 0, p.batchSize)
	for _, n := range notes {
		if strings.TrimSpace(n) == "" {
			p.skipped.Add(1)
			continue
		}
		batch = append(batch, n)
		if len(batch) == p.batchSize {
			if err := p.process(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	return p.process(ctx, batch)
}

// Stream analyzes one note per line of r as lines arrive. A batch is sent
// when full or when the window elapses. Blocks until EOF, an error, or ctx
// is cancelled.
func (p *Pipeline) Stream(ctx context.Context, r io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	buf := newNoteBuffer(p.window, p.batchSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := p.process(ctx, buf.take()); err != nil {
					return err
				}
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("pipeline read: %w", err)
					}
				default:
				}
				return ctx.Err()
			}
			if strings.TrimSpace(line) == "" {
				p.skipped.Add(1)
				continue
			}
			if buf.add(line) {
				if err := p.process(ctx, buf.take()); err != nil {
					return err
				}
			}
		case <-buf.flushCh():
			if err := p.process(ctx, buf.take()); err != nil {
				return err
			}
		}
	}
}

func (p *Pipeline) process(ctx context.Context, notes []string) error {
	if len(notes) == 0 {
		return nil
	}
	analyses, err := p.analyzer.AnalyzeBatch(notes)
	if err != nil {
		return fmt.Errorf("pipeline analyze: %w", err)
	}
	for _, a := range analyses {
		if err := p.output.Write(ctx, a); err != nil {
			return fmt.Errorf("pipeline output: %w", err)
		}
	}
	p.analyzed.Add(int64(len(analyses)))
	return nil
}

// ReadNotes splits r into notes: one per line when perLine is set,
// otherwise the whole input is a single note.
func ReadNotes(r io.Reader, perLine bool) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("pipeline read: %w", err)
	}
	if !perLine {
		return []string{string(data)}, nil
	}
	return strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n"), nil
}

// Close reports counts and shuts down the output.
func (p *Pipeline) Close() error {
	slog.Info("pipeline finished", "analyzed", p.analyzed.Load(), "skipped_blank", p.skipped.Load())
	return p.output.Close()
}
