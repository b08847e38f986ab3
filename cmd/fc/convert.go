package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/amonks/fileconverter/conversion"
	"github.com/amonks/fileconverter/internal/pdfinfo"
	"github.com/amonks/fileconverter/internal/progress"
	"github.com/amonks/fileconverter/internal/ui"
	"github.com/amonks/fileconverter/settings"
	"github.com/amonks/fileconverter/stage"
	"github.com/amonks/fileconverter/upload"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert <file.pdf>",
	Short: "Upload a PDF form and follow its conversion",
	Long: `Upload a PDF form and follow its conversion until it completes or fails.

The service must hold a complete configuration first; see "fc config set".
Progress is drawn live on a terminal and as plain status lines otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

var (
	convertDownloadDir string
	convertNoProgress  bool
	convertJSON        bool
)

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&convertDownloadDir, "download-dir", "", "Download each result's JSON into this directory")
	convertCmd.Flags().BoolVar(&convertNoProgress, "no-progress", false, "Print plain status lines instead of a live progress bar")
	convertCmd.Flags().BoolVar(&convertJSON, "json", false, "Print the final session as JSON")
}

func runConvert(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}

	source, err := conversion.FileSource(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	status, err := env.settingsStore().Check(ctx)
	if err != nil {
		return err
	}

	if upload.Validate(source.Candidate) == nil {
		if pages, err := pdfinfo.PageCount(args[0]); err != nil {
			env.logger.Debug().Err(err).Str("file", source.Candidate.Name).Msg("page count unavailable")
		} else {
			progress.Info(env.stderr, "%s: %s", source.Candidate.Name, pageLabel(pages))
		}
	}

	reporter := progress.NewReporter(env.stderr, !convertNoProgress && ui.IsTerminal(os.Stderr))
	orchestrator := conversion.New(env.client, conversion.Options{
		PollInterval:    env.cfg.Poll.Interval,
		MaxPollFailures: env.cfg.Poll.MaxFailures,
		Logger:          &env.logger,
		OnUpdate: func(session conversion.Session) {
			reporter.Update(stage.Project(session))
		},
	})
	defer orchestrator.Close()

	decision, err := orchestrator.Submit(ctx, source, status)
	if err != nil {
		return err
	}
	switch decision.Kind {
	case upload.DecisionRedirect:
		return configurationRequired(env, status)
	case upload.DecisionReject:
		return exitError{code: exitValidation, err: decision.Reason}
	}

	session, err := orchestrator.Wait(ctx)
	orchestrator.Close()
	reporter.Finish()
	if err != nil || !session.Status.IsTerminal() {
		return fmt.Errorf("conversion of %s interrupted", session.FileName)
	}

	if convertJSON {
		if err := encodeJSON(env.stdout, newSessionOutput(session)); err != nil {
			return err
		}
	}

	if session.Status == conversion.StatusFailed {
		printFailure(env, session)
		return silentExit(exitConversionFailure)
	}

	if !convertJSON {
		title := "Conversion complete"
		subtitle := fmt.Sprintf("%s converted in %s.", session.FileName, stage.FormatElapsed(session.Elapsed))
		printMarkdown(env, summaryMarkdown(title, subtitle, session.Results, session.GlobalStats))
	}

	if convertDownloadDir != "" {
		return downloadResults(ctx, env, session, convertDownloadDir)
	}
	return nil
}

func configurationRequired(env *environment, status settings.Status) error {
	switch {
	case !status.ConfigPresent && !status.SecretsPresent:
		progress.Error(env.stderr, "The conversion service is not configured")
	case !status.SecretsPresent:
		progress.Error(env.stderr, "The conversion service has no credentials")
	default:
		progress.Error(env.stderr, "The conversion service has no packager configuration")
	}
	progress.Info(env.stderr, "Run `fc config set` to complete the configuration")
	return silentExit(exitConfigRequired)
}

// printFailure shows the step list with the failed step marked, then the
// service's message wrapped to the terminal.
func printFailure(env *environment, session conversion.Session) {
	view := stage.Project(session)
	view.Error = ""
	fmt.Fprint(env.stderr, stage.Render(view, env.theme()))
	message := ui.Wrap("Conversion failed: "+session.Error, max(env.width()-2, 20))
	progress.Error(env.stderr, "%s", message)
}

func downloadResults(ctx context.Context, env *environment, session conversion.Session, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}
	for _, result := range session.Results {
		if result.JSONFile == "" {
			continue
		}
		dest := filepath.Join(dir, filepath.Base(result.JSONFile))
		written, err := downloadToFile(ctx, env, jsonOutputPath(result.JSONFile), dest)
		if err != nil {
			return err
		}
		progress.Success(env.stderr, "Saved %s (%s bytes)", dest, ui.FormatCount(int(written)))
	}
	return nil
}

// jsonOutputPath is where the service publishes a result's JSON.
func jsonOutputPath(jsonFile string) string {
	return "json_outputs/" + jsonFile
}

func pageLabel(pages int) string {
	if pages == 1 {
		return "1 page"
	}
	return ui.FormatCount(pages) + " pages"
}
