// Package api is a typed client for the conversion service HTTP API.
package api

import "strings"

// Server-side session statuses. Anything other than StatusCompleted and
// StatusError is treated as still running.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusRunning    = "running"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// ModeSingle is the only upload mode this client sends.
const ModeSingle = "single"

// IsTerminalStatus reports whether a server status ends a session.
func IsTerminalStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case StatusCompleted, StatusError:
		return true
	}
	return false
}

// ConfigStatus is the response of GET /api/config.
type ConfigStatus struct {
	ConfigExists  bool           `json:"config_exists"`
	SecretsExists bool           `json:"secrets_exists"`
	Config        PackagerConfig `json:"config"`
	Secrets       Secrets        `json:"secrets"`
}

// PackagerConfig holds the non-secret part of the stored configuration.
type PackagerConfig struct {
	PackagerMode string `json:"packager_mode,omitempty"`
}

// Secrets holds the secret part of the stored configuration.
type Secrets struct {
	TNumber    string `json:"T_NUMBER,omitempty"`
	APIKey     string `json:"AZURE_OPENAI_API_KEY,omitempty"`
	Endpoint   string `json:"AZURE_OPENAI_ENDPOINT,omitempty"`
	ModelName  string `json:"MODEL_NAME,omitempty"`
	APIVersion string `json:"API_VERSION,omitempty"`
}

// SaveConfigRequest is the body of POST /api/config.
type SaveConfigRequest struct {
	PackagerMode string `json:"packager_mode"`
	TNumber      string `json:"t_number"`
	APIKey       string `json:"api_key"`
	Endpoint     string `json:"endpoint"`
	ModelName    string `json:"model_name"`
	APIVersion   string `json:"api_version"`
}

// UploadResponse is the response of POST /api/upload.
type UploadResponse struct {
	SessionID string   `json:"session_id"`
	Files     []string `json:"files,omitempty"`
	Mode      string   `json:"mode,omitempty"`
}

// Progress is the response of GET /api/progress/{session_id}.
type Progress struct {
	SessionID    string       `json:"session_id,omitempty"`
	Status       string       `json:"status"`
	Progress     float64      `json:"progress"`
	CurrentStep  int          `json:"current_step"`
	Steps        []string     `json:"steps"`
	ElapsedTime  float64      `json:"elapsed_time"`
	CurrentFile  string       `json:"current_file,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	Results      []FileResult `json:"results,omitempty"`
	GlobalStats  *GlobalStats `json:"global_stats,omitempty"`
}

// FileResult describes the outcome of converting one uploaded file.
type FileResult struct {
	Filename    string  `json:"filename"`
	FormCode    string  `json:"form_code,omitempty"`
	PageCount   int     `json:"page_count,omitempty"`
	NumSections int     `json:"num_sections,omitempty"`
	TotalTokens int     `json:"total_tokens,omitempty"`
	TotalCost   float64 `json:"total_cost,omitempty"`
	PackageName string  `json:"package_name,omitempty"`
	JSONFile    string  `json:"json_file,omitempty"`
	Status      string  `json:"status"`
	Error       string  `json:"error,omitempty"`
}

// GlobalStats aggregates usage across every form the service has converted.
type GlobalStats struct {
	TotalTokens   int     `json:"total_tokens_all_forms"`
	TotalCost     float64 `json:"total_cost_all_forms"`
	TotalPages    int     `json:"total_pages_all_forms"`
	TotalSections int     `json:"total_sections_all_forms"`
}

// Results is the response of GET /api/results/{session_id}.
type Results struct {
	SessionID   string       `json:"session_id"`
	Results     []FileResult `json:"results"`
	GlobalStats *GlobalStats `json:"global_stats,omitempty"`
}

type okResponse struct {
	OK      bool   `json:"ok,omitempty"`
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
