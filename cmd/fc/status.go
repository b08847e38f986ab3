package main

import (
	"fmt"

	"github.com/amonks/fileconverter/api"
	"github.com/amonks/fileconverter/conversion"
	"github.com/amonks/fileconverter/stage"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Show the progress of a conversion session",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var statusJSON bool

var resultsCmd = &cobra.Command{
	Use:   "results <session-id>",
	Short: "Show the results of a completed conversion session",
	Args:  cobra.ExactArgs(1),
	RunE:  runResults,
}

var resultsJSON bool

func init() {
	rootCmd.AddCommand(statusCmd, resultsCmd)

	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	resultsCmd.Flags().BoolVar(&resultsJSON, "json", false, "Output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}

	response, err := env.client.Progress(cmd.Context(), args[0])
	if api.IsNotFound(err) {
		return fmt.Errorf("session %s: %w", args[0], err)
	}
	if err != nil {
		return err
	}
	session := conversion.SessionFromProgress(args[0], response)

	if statusJSON {
		return encodeJSON(env.stdout, newSessionOutput(session))
	}

	fmt.Fprintf(env.stdout, "Session %s: %s\n", args[0], session.Status)
	fmt.Fprint(env.stdout, stage.Render(stage.Project(session), env.theme()))
	return nil
}

func runResults(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}

	results, err := env.client.Results(cmd.Context(), args[0])
	if api.IsNotFound(err) {
		return fmt.Errorf("session %s: %w", args[0], err)
	}
	if err != nil {
		return err
	}

	if resultsJSON {
		return encodeJSON(env.stdout, results)
	}
	printMarkdown(env, summaryMarkdown("Results for session "+args[0], "", results.Results, results.GlobalStats))
	return nil
}
