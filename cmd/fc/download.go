package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/amonks/fileconverter/api"
	"github.com/amonks/fileconverter/internal/progress"
	"github.com/amonks/fileconverter/internal/ui"
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download <path>",
	Short: "Download a file the service produced",
	Long: `Download a file the service produced, for example
json_outputs/ABCD_form.json. The file is saved under its own name in the
current directory unless -o is given; -o - writes to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

var downloadOutput string

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "Write to this file instead")
}

func runDownload(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}

	if downloadOutput == "-" {
		_, err := env.client.Download(cmd.Context(), args[0], env.stdout)
		return err
	}

	dest := downloadOutput
	if dest == "" {
		dest = filepath.Base(args[0])
	}
	written, err := downloadToFile(cmd.Context(), env, args[0], dest)
	if err != nil {
		return err
	}
	progress.Success(env.stderr, "Saved %s (%s bytes)", dest, ui.FormatCount(int(written)))
	return nil
}

// downloadToFile writes the service file at path to dest. A failed download
// leaves no partial file behind.
func downloadToFile(ctx context.Context, env *environment, path, dest string) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}
	defer os.Remove(tmp.Name())

	written, err := env.client.Download(ctx, path, tmp)
	if api.IsNotFound(err) {
		err = fmt.Errorf("%s: %w", path, err)
	}
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("write %s: %w", dest, closeErr)
	}
	if err != nil {
		return 0, err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return 0, fmt.Errorf("save %s: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, fmt.Errorf("save %s: %w", dest, err)
	}
	env.logger.Debug().Str("path", path).Str("dest", dest).Int64("bytes", written).Msg("downloaded")
	return written, nil
}
