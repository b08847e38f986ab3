package main

import (
	"fmt"
	"strings"

	"github.com/amonks/fileconverter/api"
	"github.com/amonks/fileconverter/conversion"
	"github.com/amonks/fileconverter/internal/markdown"
	"github.com/amonks/fileconverter/internal/ui"
)

// sessionOutput is the JSON shape of a finished or inspected session.
type sessionOutput struct {
	SessionID   string            `json:"session_id"`
	File        string            `json:"file,omitempty"`
	Status      conversion.Status `json:"status"`
	Progress    float64           `json:"progress"`
	Elapsed     int               `json:"elapsed_seconds"`
	Steps       []string          `json:"steps,omitempty"`
	CurrentStep int               `json:"current_step"`
	Error       string            `json:"error,omitempty"`
	Results     []api.FileResult  `json:"results,omitempty"`
	GlobalStats *api.GlobalStats  `json:"global_stats,omitempty"`
}

func newSessionOutput(session conversion.Session) sessionOutput {
	return sessionOutput{
		SessionID:   session.ID,
		File:        session.FileName,
		Status:      session.Status,
		Progress:    session.Progress,
		Elapsed:     session.Elapsed,
		Steps:       session.Steps,
		CurrentStep: session.CurrentStep,
		Error:       session.Error,
		Results:     session.Results,
		GlobalStats: session.GlobalStats,
	}
}

// summaryMarkdown describes conversion results as markdown, one section per
// file followed by the service-wide totals.
func summaryMarkdown(title, subtitle string, results []api.FileResult, stats *api.GlobalStats) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "# %s\n\n", title)
	if subtitle != "" {
		fmt.Fprintf(&builder, "%s\n\n", subtitle)
	}

	if len(results) == 0 {
		builder.WriteString("No results.\n\n")
	}
	for _, result := range results {
		fmt.Fprintf(&builder, "## %s\n\n", result.Filename)
		if result.Error != "" {
			writeItem(&builder, "Error", result.Error)
		}
		writeItem(&builder, "Status", result.Status)
		writeItem(&builder, "Form code", result.FormCode)
		writeItem(&builder, "Pages", ui.FormatCount(result.PageCount))
		writeItem(&builder, "Sections", ui.FormatCount(result.NumSections))
		writeItem(&builder, "Tokens", ui.FormatCount(result.TotalTokens))
		writeItem(&builder, "Cost", ui.FormatCost(result.TotalCost))
		writeItem(&builder, "Package", result.PackageName)
		writeItem(&builder, "JSON", result.JSONFile)
		builder.WriteString("\n")
	}

	if stats != nil {
		builder.WriteString("## All forms\n\n")
		writeItem(&builder, "Tokens", ui.FormatCount(stats.TotalTokens))
		writeItem(&builder, "Cost", ui.FormatCost(stats.TotalCost))
		writeItem(&builder, "Pages", ui.FormatCount(stats.TotalPages))
		writeItem(&builder, "Sections", ui.FormatCount(stats.TotalSections))
	}
	return builder.String()
}

func writeItem(builder *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(builder, "- %s: %s\n", label, value)
}

func printMarkdown(env *environment, source string) {
	rendered := markdown.SafeRender(env.width(), 0, env.markdownStyle(), []byte(source))
	if len(rendered) == 0 {
		return
	}
	fmt.Fprintf(env.stdout, "%s\n", rendered)
}
