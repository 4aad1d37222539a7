// Package cmd - serve command
package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"carbontrace/adapters/factors/hcl"
	"carbontrace/api"
	"carbontrace/internal/config"
	"carbontrace/internal/logging"
)

var (
	serveAddr       string
	serveDatasetDir string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve the calculation and factor-resolution API over HTTP.

Examples:
  carbontrace serve
  carbontrace serve --addr :9090 --dataset ./factors`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":8080", "listen address")
	serveCmd.Flags().StringVarP(&serveDatasetDir, "dataset", "d", "", "directory of .hcl factor dataset overlays")
}

func runServe(cmd *cobra.Command, args []string) error {
	dir := serveDatasetDir
	if dir == "" {
		dir = config.Get().Factors.DatasetDir
	}
	catalog, err := hcl.Load(dir)
	if err != nil {
		return fmt.Errorf("failed to load factor dataset: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", api.NewServer("0.1.0", catalog)))

	logging.Info("serving API")
	fmt.Printf("Listening on %s (API under /api)\n", serveAddr)
	return http.ListenAndServe(serveAddr, mux)
}
