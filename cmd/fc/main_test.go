package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/amonks/fileconverter/api"
	"github.com/amonks/fileconverter/conversion"
)

func TestRootCommandName(t *testing.T) {
	if rootCmd.Use != "fc" {
		t.Fatalf("expected root command name fc, got %q", rootCmd.Use)
	}
}

func TestExitErrorCodes(t *testing.T) {
	err := error(exitError{code: exitValidation, err: errors.New("bad file")})
	var exitErr interface{ ExitCode() int }
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected exit code carrier")
	}
	if exitErr.ExitCode() != 3 {
		t.Fatalf("expected exit code 3, got %d", exitErr.ExitCode())
	}
	if err.Error() != "bad file" {
		t.Fatalf("expected wrapped message, got %q", err.Error())
	}
	if silentExit(exitConversionFailure).Error() != "exit 4" {
		t.Fatalf("unexpected silent exit message %q", silentExit(exitConversionFailure).Error())
	}
}

func TestReportErrorSkipsSilentExits(t *testing.T) {
	var out strings.Builder
	reportError(&out, silentExit(exitConfigRequired))
	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}

	reportError(&out, errors.New("boom"))
	if !strings.Contains(out.String(), "boom") {
		t.Fatalf("expected error message, got %q", out.String())
	}
}

func TestSummaryMarkdown(t *testing.T) {
	results := []api.FileResult{{
		Filename:    "ABCD_form.pdf",
		FormCode:    "ABCD",
		PageCount:   3,
		NumSections: 12,
		TotalTokens: 15234,
		TotalCost:   0.0457,
		JSONFile:    "ABCD_form.json",
		Status:      "success",
	}}
	stats := &api.GlobalStats{TotalTokens: 1234567, TotalCost: 3.5, TotalPages: 40, TotalSections: 300}

	got := summaryMarkdown("Conversion complete", "ABCD_form.pdf converted in 0:09.", results, stats)

	for _, want := range []string{
		"# Conversion complete",
		"ABCD_form.pdf converted in 0:09.",
		"## ABCD_form.pdf",
		"- Form code: ABCD",
		"- Tokens: 15,234",
		"- Cost: $0.0457",
		"- JSON: ABCD_form.json",
		"## All forms",
		"- Tokens: 1,234,567",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected summary to contain %q, got:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Package:") {
		t.Fatalf("expected empty package to be omitted, got:\n%s", got)
	}
}

func TestSummaryMarkdownWithoutResults(t *testing.T) {
	got := summaryMarkdown("Results for session s-1", "", nil, nil)
	if !strings.Contains(got, "No results.") {
		t.Fatalf("expected no-results note, got:\n%s", got)
	}
	if strings.Contains(got, "All forms") {
		t.Fatalf("expected no totals without stats, got:\n%s", got)
	}
}

func TestNewSessionOutput(t *testing.T) {
	session := conversion.Session{
		ID:       "s-1",
		FileName: "ABCD_form.pdf",
		Status:   conversion.StatusFailed,
		Progress: 20,
		Error:    "Invalid PDF structure",
	}
	out := newSessionOutput(session)
	if out.SessionID != "s-1" || out.Status != conversion.StatusFailed || out.Error != "Invalid PDF structure" {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestPageLabel(t *testing.T) {
	if got := pageLabel(1); got != "1 page" {
		t.Fatalf("expected singular, got %q", got)
	}
	if got := pageLabel(1200); got != "1,200 pages" {
		t.Fatalf("expected plural with separator, got %q", got)
	}
}
