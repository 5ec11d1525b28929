package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/clinote/internal/config"
	"github.com/crimson-sun/clinote/internal/engine"
	"github.com/crimson-sun/clinote/internal/engine/loader"
	"github.com/crimson-sun/clinote/internal/engine/textclass"
	"github.com/crimson-sun/clinote/internal/logging"
	"github.com/crimson-sun/clinote/internal/shell"
)

var (
	cfgFile      string
	modelFlag    string
	offlineFlag  bool
	logLevelFlag string
	logJSON      bool
	cfg          config.Config
)

var rootCmd = &cobra.Command{
	Use:   "clinote",
	Short: "Classify clinical notes into broad disease categories",
	Long: `clinote runs a local BERT-style sequence classifier over clinical free text
and reports the predicted disease category with a confidence score.

The model must be an ONNX sequence-classification export with its
vocab.txt, either a local directory or a hub repository that ships one.
Labels LABEL_0 to LABEL_9 map to disease categories; any other label
reports as Unknown Condition.

Hub repositories with only PyTorch weights, the default
emilyalsentzer/Bio_ClinicalBERT among them, need exporting first:

  optimum-cli export onnx --model emilyalsentzer/Bio_ClinicalBERT \
    --task text-classification ./bio-clinicalbert-onnx
  clinote --model ./bio-clinicalbert-onnx

Example usage:
  clinote                                # interactive terminal shell
  clinote serve --listen :7860           # web page with text box and Analyze button
  clinote analyze "BP 168/102, on lisinopril"
  clinote analyze --batch --json -f notes.txt
  clinote fetch org/clinical-onnx`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       config.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(".env"); err != nil {
			return err
		}

		var err error
		cfg, err = config.LoadFile(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("model") {
			cfg.Model.ID = modelFlag
		}
		if cmd.Flags().Changed("offline") {
			cfg.Hub.Offline = offlineFlag
		}
		if logLevelFlag != "" {
			cfg.LogLevel = logLevelFlag
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration:\n%w", err)
		}

		logging.Init(os.Stderr, logJSON || analyzeJSON, logging.ParseLevel(cfg.LogLevel))
		return nil
	},
	RunE: runShell,
}

// Execute runs the root command and exits non-zero on failure. A model that
// cannot be resolved or loaded aborts before any UI is shown.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, loader.ErrModelUnavailable) {
			slog.Error("startup failed", "error", err)
		}
		fmt.Fprintf(os.Stderr, "clinote: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "model id or local directory (overrides CLINOTE_MODEL)")
	rootCmd.PersistentFlags().BoolVar(&offlineFlag, "offline", false, "never contact the model hub")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "JSON logs on stderr")
}

func newResolver() *loader.Resolver {
	lc := loader.Config{
		Endpoint: cfg.Hub.Endpoint,
		Token:    cfg.Hub.Token,
		Revision: cfg.Model.Revision,
		CacheDir: cfg.Hub.CacheDir,
		Offline:  cfg.Hub.Offline,
		Patterns: cfg.Model.Files,
		Timeout:  cfg.Hub.Timeout,
	}
	if shell.IsTerminal(os.Stderr) {
		lc.Progress = os.Stderr
	}
	return loader.NewResolver(lc)
}

// loadEngine resolves and loads the configured model. The returned close
// func releases the ONNX session.
func loadEngine(ctx context.Context) (*engine.Engine, func(), error) {
	cls, _, err := newResolver().Load(ctx, cfg.Model.ID, textclass.Options{
		LibPath:   cfg.Runtime.LibPath,
		Threads:   cfg.Runtime.Threads,
		MaxSeqLen: cfg.Runtime.MaxSeqLen,
	})
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := cls.Close(); err != nil {
			slog.Warn("failed to close classifier", "error", err)
		}
	}
	return engine.New(cls), closeFn, nil
}
