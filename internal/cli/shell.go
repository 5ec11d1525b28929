package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/clinote/internal/engine"
	"github.com/crimson-sun/clinote/internal/shell"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive terminal shell (default command)",
	Long: `Type or paste a clinical note, blank lines included, then enter :analyze
on a line of its own. The output area is redrawn with the three-line report
on every trigger. :clear discards the typed text and :quit exits. Text still
pending at end of input is analyzed before exiting.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	eng, closeFn, err := loadEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	sh := shell.New(eng, shell.NewTerminal(os.Stdout, shell.Header))
	repl := shell.NewREPL(sh, os.Stdout)
	repl.Recoverable = func(err error) bool { return errors.Is(err, engine.ErrEmptyInput) }
	return repl.Run(cmd.Context(), os.Stdin)
}
