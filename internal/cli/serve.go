package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/clinote/internal/web"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web page and JSON API",
	Long: `Serve a page with a text box, an Analyze button and an output area, plus
POST /api/v1/analyze, GET /api/v1/labels and GET /healthz.

Every submission is analyzed on its own; the page never shows another
visitor's note or report. The server has no authentication, so bind it to a
non-loopback address only on a trusted network.

Examples:
  clinote serve
  clinote serve --listen 0.0.0.0:8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "listen address (default from CLINOTE_LISTEN)")
}

func runServe(cmd *cobra.Command, args []string) error {
	eng, closeFn, err := loadEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	addr := cfg.Server.Listen
	if listenAddr != "" {
		addr = listenAddr
	}
	err = web.New(eng, cfg.Model.ID).Run(cmd.Context(), addr)
	if errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
