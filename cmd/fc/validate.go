package main

import (
	"github.com/amonks/fileconverter/internal/pdfinfo"
	"github.com/amonks/fileconverter/internal/progress"
	"github.com/amonks/fileconverter/upload"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file.pdf>",
	Short: "Check a file against the upload rules without uploading it",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}

	candidate, err := upload.CandidateFromPath(args[0])
	if err != nil {
		return err
	}
	if err := upload.Validate(candidate); err != nil {
		return exitError{code: exitValidation, err: err}
	}

	pages, err := pdfinfo.PageCount(args[0])
	if err != nil {
		progress.Warning(env.stderr, "Could not read the page count: %v", err)
		progress.Success(env.stdout, "%s is ready to upload", candidate.Name)
		return nil
	}
	progress.Success(env.stdout, "%s is ready to upload (%s)", candidate.Name, pageLabel(pages))
	return nil
}
