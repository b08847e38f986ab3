package editor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amonks/fileconverter/settings"
)

var currentConfiguration = settings.Configuration{
	TNumber:      "T123",
	Endpoint:     "https://example.openai.azure.com/",
	APIKey:       "sk-test-abcd1234",
	APIVersion:   "2024-02-01",
	ModelName:    "gpt-4o",
	PackagerMode: settings.PackagerSandbox,
}

func TestRenderConfigurationTOMLMasksKey(t *testing.T) {
	content, err := RenderConfigurationTOML(currentConfiguration)
	if err != nil {
		t.Fatalf("RenderConfigurationTOML failed: %v", err)
	}

	if strings.Contains(content, "sk-test-abcd1234") {
		t.Fatalf("expected API key to be masked, got:\n%s", content)
	}
	for _, want := range []string{
		`t_number = "T123"`,
		`api_key = "****1234"`,
		`packager_mode = "sandbox" # sandbox, dev`,
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in:\n%s", want, content)
		}
	}
}

func TestParseConfigurationTOMLRoundTrip(t *testing.T) {
	content, err := RenderConfigurationTOML(currentConfiguration)
	if err != nil {
		t.Fatalf("RenderConfigurationTOML failed: %v", err)
	}

	parsed, err := ParseConfigurationTOML(content, currentConfiguration)
	if err != nil {
		t.Fatalf("ParseConfigurationTOML failed: %v", err)
	}
	if parsed != currentConfiguration {
		t.Fatalf("expected unchanged configuration, got %+v", parsed)
	}
}

func TestParseConfigurationTOMLReplacesKey(t *testing.T) {
	content := `t_number = "T9"
endpoint = "https://other.example.com/"
api_key = "sk-new-9999"
api_version = "2024-06-01"
model_name = "gpt-4o-mini"
packager_mode = "dev"
`
	parsed, err := ParseConfigurationTOML(content, currentConfiguration)
	if err != nil {
		t.Fatalf("ParseConfigurationTOML failed: %v", err)
	}
	if parsed.APIKey != "sk-new-9999" {
		t.Fatalf("expected new key, got %q", parsed.APIKey)
	}
	if parsed.PackagerMode != settings.PackagerDev {
		t.Fatalf("expected dev mode, got %q", parsed.PackagerMode)
	}
}

func TestParseConfigurationTOMLRejectsUnknownKeys(t *testing.T) {
	_, err := ParseConfigurationTOML("t_numbr = \"T1\"\n", currentConfiguration)
	if err == nil || !strings.Contains(err.Error(), "unknown key t_numbr") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestParseConfigurationTOMLEmptyCancels(t *testing.T) {
	_, err := ParseConfigurationTOML("# only comments\n\n", currentConfiguration)
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestEditConfigurationRunsEditor(t *testing.T) {
	script := filepath.Join(t.TempDir(), "editor.sh")
	body := "#!/bin/sh\nsed 's/gpt-4o/gpt-4o-mini/' \"$1\" > \"$1.new\" && mv \"$1.new\" \"$1\"\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write editor script: %v", err)
	}
	t.Setenv("EDITOR", script)

	edited, err := EditConfiguration(currentConfiguration)
	if err != nil {
		t.Fatalf("EditConfiguration failed: %v", err)
	}
	if edited.ModelName != "gpt-4o-mini" {
		t.Fatalf("expected edited model name, got %q", edited.ModelName)
	}
	if edited.APIKey != currentConfiguration.APIKey {
		t.Fatalf("expected key to be kept, got %q", edited.APIKey)
	}
}

func TestEditReportsEditorFailure(t *testing.T) {
	t.Setenv("EDITOR", "false")
	err := Edit(filepath.Join(t.TempDir(), "file"))
	if err == nil || !strings.Contains(err.Error(), "status 1") {
		t.Fatalf("expected editor exit status error, got %v", err)
	}
}
