package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/clinote/internal/output"
	"github.com/crimson-sun/clinote/internal/output/stdout"
	"github.com/crimson-sun/clinote/internal/pipeline"
)

var (
	analyzeFile      string
	analyzeJSON      bool
	analyzePretty    bool
	analyzeBatch     bool
	analyzeBatchSize int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text...]",
	Short: "Analyze a note and print the report",
	Long: `Analyze one clinical note given as arguments, a file, or stdin ("-"),
and print the three-line report. With --batch every non-empty line is a
separate note.

Examples:
  clinote analyze "Wheezing, uses albuterol 4x daily"
  clinote analyze -f note.txt
  cat notes.txt | clinote analyze --batch --json -`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "read the note from a file")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print analyses as NDJSON")
	analyzeCmd.Flags().BoolVar(&analyzePretty, "pretty", false, "indent JSON output")
	analyzeCmd.Flags().BoolVar(&analyzeBatch, "batch", false, "treat each line as a separate note")
	analyzeCmd.Flags().IntVar(&analyzeBatchSize, "batch-size", pipeline.DefaultBatchSize, "notes per inference call with --batch")
}

// analyzeInput picks the note source: a file, stdin, or the arguments.
func analyzeInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	switch {
	case analyzeFile != "":
		if len(args) > 0 {
			return nil, fmt.Errorf("pass either --file or text arguments, not both")
		}
		return os.Open(analyzeFile)
	case len(args) == 0 || (len(args) == 1 && args[0] == "-"):
		return io.NopCloser(cmd.InOrStdin()), nil
	default:
		return io.NopCloser(strings.NewReader(strings.Join(args, " "))), nil
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	in, err := analyzeInput(cmd, args)
	if err != nil {
		return err
	}
	defer in.Close()

	eng, closeFn, err := loadEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	format := output.Report
	if analyzeJSON {
		format = output.JSON
	}
	out := stdout.New(cmd.OutOrStdout(), format, analyzePretty)

	if !analyzeBatch {
		notes, err := pipeline.ReadNotes(in, false)
		if err != nil {
			return err
		}
		a, err := eng.Analyze(notes[0])
		if err != nil {
			return err
		}
		return out.Write(cmd.Context(), a)
	}

	p := pipeline.New(eng, out, pipeline.WithBatchSize(analyzeBatchSize))
	defer p.Close()
	return p.Stream(cmd.Context(), in)
}
