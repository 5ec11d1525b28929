package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fetchRevision string

var fetchCmd = &cobra.Command{
	Use:   "fetch [model]",
	Short: "Download a model into the cache without loading it",
	Long: `Resolve a model id against the hub and download the ONNX graph, vocab
and configs into the cache. Defaults to the configured model.

Examples:
  clinote fetch
  clinote fetch org/clinical-bert-onnx --revision v1.2`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVar(&fetchRevision, "revision", "", "branch, tag or commit (default from config)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	id := cfg.Model.ID
	if len(args) > 0 {
		id = args[0]
	}
	if fetchRevision != "" {
		cfg.Model.Revision = fetchRevision
	}

	files, err := newResolver().Resolve(cmd.Context(), id)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "model:     %s\n", files.ID)
	if files.Revision != "" {
		fmt.Fprintf(w, "revision:  %s\n", files.Revision)
	}
	fmt.Fprintf(w, "dir:       %s\n", files.Dir)
	fmt.Fprintf(w, "graph:     %s\n", files.Model)
	fmt.Fprintf(w, "vocab:     %s\n", files.Vocab)
	if files.Config != "" {
		fmt.Fprintf(w, "config:    %s\n", files.Config)
	}
	if files.TokenizerConfig != "" {
		fmt.Fprintf(w, "tokenizer: %s\n", files.TokenizerConfig)
	}
	return nil
}
