package stage

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme selects the color palette used by Render.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ThemeFor maps the persisted dark-mode preference to a theme.
func ThemeFor(dark bool) Theme {
	if dark {
		return ThemeDark
	}
	return ThemeLight
}

const barWidth = 30

type palette struct {
	title   lipgloss.Style
	muted   lipgloss.Style
	active  lipgloss.Style
	done    lipgloss.Style
	failed  lipgloss.Style
	barFill lipgloss.Style
	barRest lipgloss.Style
}

var palettes = map[Theme]palette{
	ThemeLight: {
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("24")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		active:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("25")),
		done:    lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
		failed:  lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
		barFill: lipgloss.NewStyle().Foreground(lipgloss.Color("25")),
		barRest: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	},
	ThemeDark: {
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		active:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
		done:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		failed:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		barFill: lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		barRest: lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	},
}

// Render draws the view as a multi-line block.
func Render(view View, theme Theme) string {
	styles, ok := palettes[theme]
	if !ok {
		styles = palettes[ThemeLight]
	}

	var builder strings.Builder
	title := "Converting"
	if view.FileName != "" {
		title = "Converting " + view.FileName
	}
	builder.WriteString(styles.title.Render(title))
	builder.WriteByte('\n')

	filled := view.OverallPercent * barWidth / 100
	builder.WriteString(styles.barFill.Render(strings.Repeat("█", filled)))
	builder.WriteString(styles.barRest.Render(strings.Repeat("░", barWidth-filled)))
	fmt.Fprintf(&builder, " %3d%%  %s\n", view.OverallPercent, styles.muted.Render(view.Elapsed))

	if view.Initializing {
		builder.WriteString(styles.muted.Render("Initializing..."))
		builder.WriteByte('\n')
	}

	for _, step := range view.Steps {
		switch step.State {
		case StepDone:
			builder.WriteString(styles.done.Render("✓ " + step.Label))
		case StepActive:
			builder.WriteString(styles.active.Render("› " + step.Label))
		case StepFailed:
			builder.WriteString(styles.failed.Render("✗ " + step.Label))
		default:
			builder.WriteString(styles.muted.Render("· " + step.Label))
		}
		builder.WriteByte('\n')
	}

	if view.Error != "" {
		builder.WriteString(styles.failed.Render("Error: " + view.Error))
		builder.WriteByte('\n')
	}
	return builder.String()
}
