package main

import (
	"io"
	"os"

	"github.com/amonks/fileconverter/api"
	"github.com/amonks/fileconverter/internal/config"
	"github.com/amonks/fileconverter/internal/logging"
	"github.com/amonks/fileconverter/internal/markdown"
	"github.com/amonks/fileconverter/internal/paths"
	"github.com/amonks/fileconverter/internal/prefs"
	"github.com/amonks/fileconverter/internal/progress"
	"github.com/amonks/fileconverter/internal/ui"
	"github.com/amonks/fileconverter/settings"
	"github.com/amonks/fileconverter/stage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// environment is what every command needs: resolved configuration, a
// logger, a service client and the local preferences.
type environment struct {
	cfg    *config.Config
	logger zerolog.Logger
	client *api.Client
	prefs  *prefs.Store
	stdout io.Writer
	stderr io.Writer
}

func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	cwd, err := paths.WorkingDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}
	if rootServer != "" {
		cfg.Service.URL = rootServer
	}

	level := cfg.Log.Level
	if rootLogLevel != "" {
		level = rootLogLevel
	}
	logger, err := logging.New(logging.Options{Level: level, Output: cmd.ErrOrStderr()})
	if err != nil {
		return nil, err
	}

	if rootNoColor || !ui.ColorEnabled(os.Stdout) {
		progress.DisableColor()
	}

	stateDir, err := paths.DefaultStateDir()
	if err != nil {
		return nil, err
	}

	logger.Debug().Str("service", cfg.Service.URL).Msg("loaded configuration")
	return &environment{
		cfg:    cfg,
		logger: logger,
		client: api.NewClient(cfg.Service.URL, api.ClientOptions{Timeout: cfg.Service.Timeout}),
		prefs:  prefs.NewStore(stateDir),
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
	}, nil
}

func (e *environment) settingsStore() *settings.Store {
	return settings.NewStore(e.client)
}

// darkMode reports the persisted theme. An unreadable preferences file
// falls back to the light theme.
func (e *environment) darkMode() bool {
	p, err := e.prefs.Load()
	if err != nil {
		e.logger.Warn().Err(err).Msg("could not read preferences")
		return false
	}
	return p.DarkMode
}

func (e *environment) theme() stage.Theme {
	return stage.ThemeFor(e.darkMode())
}

// markdownStyle picks plain ASCII output unless stdout is a color terminal.
func (e *environment) markdownStyle() markdown.Style {
	if rootNoColor || !ui.ColorEnabled(os.Stdout) {
		return markdown.StyleASCII
	}
	if e.darkMode() {
		return markdown.StyleDark
	}
	return markdown.StyleLight
}

func (e *environment) width() int {
	return ui.Width(os.Stdout)
}
