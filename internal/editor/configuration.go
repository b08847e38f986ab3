package editor

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/BurntSushi/toml"
	"github.com/amonks/fileconverter/settings"
)

// ErrEmpty is returned when the edited file has no content left.
var ErrEmpty = errors.New("configuration file is empty; nothing changed")

var configurationTemplate = template.Must(template.New("configuration").Parse(`# Conversion service configuration.
# Save and quit to apply. Delete everything to cancel.
t_number = {{ printf "%q" .TNumber }} # T followed by digits, for example T12345
endpoint = {{ printf "%q" .Endpoint }} # http:// or https:// URL
api_key = {{ printf "%q" .APIKey }} # leave masked to keep the current key
api_version = {{ printf "%q" .APIVersion }}
model_name = {{ printf "%q" .ModelName }}
packager_mode = {{ printf "%q" .PackagerMode }} # {{ .Modes }}
`))

type configurationData struct {
	settings.Configuration
	Modes string
}

// RenderConfigurationTOML renders cfg for editing. The API key is masked.
func RenderConfigurationTOML(cfg settings.Configuration) (string, error) {
	modes := make([]string, 0, len(settings.ValidPackagerModes()))
	for _, mode := range settings.ValidPackagerModes() {
		modes = append(modes, string(mode))
	}

	var buf bytes.Buffer
	data := configurationData{Configuration: cfg.Masked(), Modes: strings.Join(modes, ", ")}
	if err := configurationTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}

type parsedConfiguration struct {
	TNumber      string `toml:"t_number"`
	Endpoint     string `toml:"endpoint"`
	APIKey       string `toml:"api_key"`
	APIVersion   string `toml:"api_version"`
	ModelName    string `toml:"model_name"`
	PackagerMode string `toml:"packager_mode"`
}

// ParseConfigurationTOML reads an edited configuration. A masked API key
// that matches current keeps the current key. Values are not validated;
// the settings store does that on save.
func ParseConfigurationTOML(content string, current settings.Configuration) (settings.Configuration, error) {
	if strings.TrimSpace(stripComments(content)) == "" {
		return settings.Configuration{}, ErrEmpty
	}

	var parsed parsedConfiguration
	meta, err := toml.Decode(content, &parsed)
	if err != nil {
		return settings.Configuration{}, fmt.Errorf("parse TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return settings.Configuration{}, fmt.Errorf("parse TOML: unknown key %s", undecoded[0])
	}

	apiKey := strings.TrimSpace(parsed.APIKey)
	if apiKey == settings.MaskSecret(current.APIKey) {
		apiKey = current.APIKey
	}
	return settings.Configuration{
		TNumber:      parsed.TNumber,
		Endpoint:     parsed.Endpoint,
		APIKey:       apiKey,
		APIVersion:   parsed.APIVersion,
		ModelName:    parsed.ModelName,
		PackagerMode: settings.PackagerMode(parsed.PackagerMode),
	}, nil
}

func stripComments(content string) string {
	var builder strings.Builder
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		builder.WriteString(line)
		builder.WriteByte('\n')
	}
	return builder.String()
}

// EditConfiguration opens the editor on current and returns the edited
// configuration.
func EditConfiguration(current settings.Configuration) (settings.Configuration, error) {
	content, err := RenderConfigurationTOML(current)
	if err != nil {
		return settings.Configuration{}, err
	}

	tmpfile, err := os.CreateTemp("", "fc-config-*.toml")
	if err != nil {
		return settings.Configuration{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpfile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpfile.WriteString(content); err != nil {
		tmpfile.Close()
		return settings.Configuration{}, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpfile.Close(); err != nil {
		return settings.Configuration{}, fmt.Errorf("close temp file: %w", err)
	}

	if err := Edit(tmpPath); err != nil {
		return settings.Configuration{}, err
	}

	edited, err := os.ReadFile(tmpPath)
	if err != nil {
		return settings.Configuration{}, fmt.Errorf("read edited file: %w", err)
	}
	return ParseConfigurationTOML(string(edited), current)
}
