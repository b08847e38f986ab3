// Package main implements the fc CLI, a terminal client for the PDF
// conversion service.
package main

import (
	"errors"
	"io"
	"os"

	"github.com/amonks/fileconverter/internal/progress"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(exitGeneric)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fc",
	Short: "Convert PDF forms with the conversion service",
	Long: `fc uploads PDF forms to the conversion service, follows the
conversion until it finishes, and shows the results.

The service address comes from --server, FC_SERVICE_URL, or the
[service] url key of ~/.config/fileconverter/config.toml or
./fileconverter.toml, in that order.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	rootServer   string
	rootLogLevel string
	rootNoColor  bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rootServer, "server", "", "Conversion service URL")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "Log level (trace, debug, info, warn, error, off)")
	rootCmd.PersistentFlags().BoolVar(&rootNoColor, "no-color", false, "Disable colored output")
}

// reportError prints err unless the command already explained it.
func reportError(w io.Writer, err error) {
	var exitErr exitError
	if errors.As(err, &exitErr) && exitErr.err == nil {
		return
	}
	progress.Error(w, "%v", err)
}
