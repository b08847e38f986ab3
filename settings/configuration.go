// Package settings owns the credentials and parameters that authorize a
// conversion: validation, the remote-backed store, and the edit form.
package settings

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	internalstrings "github.com/amonks/fileconverter/internal/strings"
	"github.com/amonks/fileconverter/internal/validation"
	"github.com/spf13/pflag"
)

// PackagerMode selects the packaging target for converted forms.
type PackagerMode string

const (
	// PackagerSandbox packages forms for the sandbox environment.
	PackagerSandbox PackagerMode = "sandbox"
	// PackagerDev packages forms for the dev environment.
	PackagerDev PackagerMode = "dev"
)

// DefaultPackagerMode is used when no mode is configured.
const DefaultPackagerMode = PackagerSandbox

// ErrInvalidPackagerMode indicates an unknown packager mode.
var ErrInvalidPackagerMode = errors.New("invalid packager mode")

// ValidPackagerModes returns all valid packager modes.
func ValidPackagerModes() []PackagerMode {
	return []PackagerMode{PackagerSandbox, PackagerDev}
}

// IsValid returns true if the mode is a known value.
func (m PackagerMode) IsValid() bool {
	return validation.IsValidValue(m, ValidPackagerModes())
}

// ParsePackagerMode normalizes and validates a packager mode. Empty input
// yields the default mode.
func ParsePackagerMode(value string) (PackagerMode, error) {
	normalized := PackagerMode(internalstrings.NormalizeLowerTrimSpace(value))
	if normalized == "" {
		return DefaultPackagerMode, nil
	}
	if !normalized.IsValid() {
		return "", validation.FormatInvalidValueError(ErrInvalidPackagerMode, PackagerMode(value), ValidPackagerModes())
	}
	return normalized, nil
}

var _ pflag.Value = (*PackagerMode)(nil)

// String implements pflag.Value.
func (m *PackagerMode) String() string {
	if m == nil {
		return ""
	}
	return string(*m)
}

// Set implements pflag.Value.
func (m *PackagerMode) Set(value string) error {
	parsed, err := ParsePackagerMode(value)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Type implements pflag.Value.
func (m *PackagerMode) Type() string {
	return "mode"
}

// Field names a configuration field. Values match the service's wire keys.
type Field string

const (
	FieldTNumber      Field = "t_number"
	FieldEndpoint     Field = "endpoint"
	FieldAPIKey       Field = "api_key"
	FieldAPIVersion   Field = "api_version"
	FieldModelName    Field = "model_name"
	FieldPackagerMode Field = "packager_mode"
)

// Fields returns the configuration fields in form order.
func Fields() []Field {
	return []Field{FieldTNumber, FieldEndpoint, FieldAPIKey, FieldAPIVersion, FieldModelName, FieldPackagerMode}
}

// Label returns the human-readable name of the field.
func (f Field) Label() string {
	switch f {
	case FieldTNumber:
		return "T-Number"
	case FieldEndpoint:
		return "Endpoint"
	case FieldAPIKey:
		return "API key"
	case FieldAPIVersion:
		return "API version"
	case FieldModelName:
		return "Model name"
	case FieldPackagerMode:
		return "Packager mode"
	}
	return string(f)
}

// Configuration holds everything the service needs to run a conversion.
type Configuration struct {
	TNumber      string
	Endpoint     string
	APIKey       string
	APIVersion   string
	ModelName    string
	PackagerMode PackagerMode
}

var tNumberPattern = regexp.MustCompile(`(?i)^T[0-9]+$`)

// ValidTNumber reports whether value is T followed by one or more digits,
// case-insensitively.
func ValidTNumber(value string) bool {
	return tNumberPattern.MatchString(value)
}

// ValidEndpoint reports whether value is an http or https URL.
func ValidEndpoint(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}

// Normalized trims every field and defaults the packager mode.
func (c Configuration) Normalized() Configuration {
	normalized := Configuration{
		TNumber:      internalstrings.TrimSpace(c.TNumber),
		Endpoint:     internalstrings.TrimSpace(c.Endpoint),
		APIKey:       internalstrings.TrimSpace(c.APIKey),
		APIVersion:   internalstrings.TrimSpace(c.APIVersion),
		ModelName:    internalstrings.TrimSpace(c.ModelName),
		PackagerMode: PackagerMode(internalstrings.NormalizeLowerTrimSpace(string(c.PackagerMode))),
	}
	if normalized.PackagerMode == "" {
		normalized.PackagerMode = DefaultPackagerMode
	}
	return normalized
}

// Validate checks every field and returns *ValidationErrors listing all
// problems, or nil.
func (c Configuration) Validate() error {
	c = c.Normalized()
	var errs ValidationErrors

	switch {
	case c.TNumber == "":
		errs.add(FieldTNumber, "T-Number is required")
	case !ValidTNumber(c.TNumber):
		errs.add(FieldTNumber, "T-Number must be T followed by digits (for example T12345)")
	}
	switch {
	case c.Endpoint == "":
		errs.add(FieldEndpoint, "Endpoint is required")
	case !ValidEndpoint(c.Endpoint):
		errs.add(FieldEndpoint, "Endpoint must start with http:// or https://")
	}
	if c.APIKey == "" {
		errs.add(FieldAPIKey, "API key is required")
	}
	if c.APIVersion == "" {
		errs.add(FieldAPIVersion, "API version is required")
	}
	if c.ModelName == "" {
		errs.add(FieldModelName, "Model name is required")
	}
	if !c.PackagerMode.IsValid() {
		err := validation.FormatInvalidValueError(ErrInvalidPackagerMode, c.PackagerMode, ValidPackagerModes())
		errs.add(FieldPackagerMode, err.Error())
	}

	if len(errs.Errors) == 0 {
		return nil
	}
	return &errs
}

// Complete reports whether every required field is present and well formed.
func (c Configuration) Complete() bool {
	return c.Validate() == nil
}

// Get returns the value of a field.
func (c Configuration) Get(field Field) string {
	switch field {
	case FieldTNumber:
		return c.TNumber
	case FieldEndpoint:
		return c.Endpoint
	case FieldAPIKey:
		return c.APIKey
	case FieldAPIVersion:
		return c.APIVersion
	case FieldModelName:
		return c.ModelName
	case FieldPackagerMode:
		return string(c.PackagerMode)
	}
	return ""
}

// With returns a copy of c with field set to value.
func (c Configuration) With(field Field, value string) (Configuration, error) {
	switch field {
	case FieldTNumber:
		c.TNumber = value
	case FieldEndpoint:
		c.Endpoint = value
	case FieldAPIKey:
		c.APIKey = value
	case FieldAPIVersion:
		c.APIVersion = value
	case FieldModelName:
		c.ModelName = value
	case FieldPackagerMode:
		c.PackagerMode = PackagerMode(value)
	default:
		return c, fmt.Errorf("unknown configuration field %q", field)
	}
	return c, nil
}

// Masked returns a copy safe to print: the API key keeps only its last four
// characters.
func (c Configuration) Masked() Configuration {
	c.APIKey = MaskSecret(c.APIKey)
	return c
}

// MaskSecret hides all but the last four characters of a secret.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	runes := []rune(secret)
	if len(runes) <= 4 {
		return "****"
	}
	return "****" + string(runes[len(runes)-4:])
}

// FieldError describes one invalid field.
type FieldError struct {
	Field   Field
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

// ValidationErrors collects every invalid field of a configuration.
type ValidationErrors struct {
	Errors []*FieldError
}

func (e *ValidationErrors) add(field Field, message string) {
	e.Errors = append(e.Errors, &FieldError{Field: field, Message: message})
}

func (e *ValidationErrors) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, fieldErr := range e.Errors {
		messages = append(messages, fieldErr.Message)
	}
	return "invalid configuration: " + strings.Join(messages, "; ")
}

// For returns the error for field, if any.
func (e *ValidationErrors) For(field Field) (*FieldError, bool) {
	for _, fieldErr := range e.Errors {
		if fieldErr.Field == field {
			return fieldErr, true
		}
	}
	return nil, false
}
