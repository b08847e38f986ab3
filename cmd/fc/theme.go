package main

import (
	"fmt"

	"github.com/amonks/fileconverter/internal/prefs"
	"github.com/spf13/cobra"
)

var themeCmd = &cobra.Command{
	Use:       "theme [dark|light|toggle]",
	Short:     "Show or change the color theme",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"dark", "light", "toggle"},
	RunE:      runTheme,
}

func init() {
	rootCmd.AddCommand(themeCmd)
}

func runTheme(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}

	var p prefs.Prefs
	switch {
	case len(args) == 0:
		p, err = env.prefs.Load()
	case args[0] == "toggle":
		p, err = env.prefs.ToggleDarkMode()
	default:
		p, err = env.prefs.SetDarkMode(args[0] == "dark")
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(env.stdout, themeName(p.DarkMode))
	return nil
}

func themeName(dark bool) string {
	if dark {
		return "dark"
	}
	return "light"
}
