// Package conversion runs one document conversion against the service:
// upload, start, poll until the job completes or fails.
package conversion

import (
	"slices"

	"github.com/amonks/fileconverter/api"
	internalstrings "github.com/amonks/fileconverter/internal/strings"
)

// Status represents the orchestrator lifecycle state.
type Status string

const (
	// StatusIdle indicates nothing has been submitted.
	StatusIdle Status = "idle"
	// StatusUploading indicates the file upload is in flight.
	StatusUploading Status = "uploading"
	// StatusStarting indicates the start-processing request is in flight.
	StatusStarting Status = "starting"
	// StatusPolling indicates the job is running and progress is being polled.
	StatusPolling Status = "polling"
	// StatusCompleted indicates the job finished successfully.
	StatusCompleted Status = "completed"
	// StatusFailed indicates the run failed.
	StatusFailed Status = "failed"
)

// IsTerminal reports whether no further transitions can happen.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// DefaultErrorMessage is used when the service reports an error without a message.
const DefaultErrorMessage = "Conversion failed"

// Session is a snapshot of one conversion run.
type Session struct {
	// RunID is generated locally and only used to correlate logs.
	RunID string
	// ID is assigned by the service on upload.
	ID       string
	FileName string
	Status   Status
	// ServerStatus is the status string of the last applied progress response.
	ServerStatus string
	Steps        []string
	CurrentStep  int
	// Progress is a percentage in [0, 100]. It never decreases.
	Progress float64
	// Elapsed is the service-reported run time in seconds. It never decreases.
	Elapsed int
	// Error is set only when Status is StatusFailed.
	Error string
	// Results and GlobalStats are set only when Status is StatusCompleted.
	Results     []api.FileResult
	GlobalStats *api.GlobalStats
	// PollFailures counts consecutive failed progress requests.
	PollFailures int
}

func (s Session) clone() Session {
	s.Steps = slices.Clone(s.Steps)
	s.Results = slices.Clone(s.Results)
	if s.GlobalStats != nil {
		stats := *s.GlobalStats
		s.GlobalStats = &stats
	}
	return s
}

// SessionFromProgress builds a session from a single progress response, for
// inspecting a run this process did not start.
func SessionFromProgress(sessionID string, progress api.Progress) Session {
	session := Session{
		ID:           sessionID,
		FileName:     progress.CurrentFile,
		Status:       StatusPolling,
		ServerStatus: progress.Status,
		Steps:        slices.Clone(progress.Steps),
		CurrentStep:  max(progress.CurrentStep, 0),
		Progress:     clampPercent(progress.Progress),
		Elapsed:      max(int(progress.ElapsedTime), 0),
	}
	settle(&session, progress)
	return session
}

// settle applies a terminal progress response to s and reports whether it
// was terminal. Non-terminal responses leave s untouched.
func settle(s *Session, progress api.Progress) bool {
	if !api.IsTerminalStatus(progress.Status) {
		return false
	}
	if internalstrings.NormalizeLowerTrimSpace(progress.Status) == api.StatusCompleted {
		s.Status = StatusCompleted
		s.Results = slices.Clone(progress.Results)
		if progress.GlobalStats != nil {
			stats := *progress.GlobalStats
			s.GlobalStats = &stats
		}
		return true
	}
	s.Status = StatusFailed
	s.Error = progress.ErrorMessage
	if internalstrings.IsBlank(s.Error) {
		s.Error = DefaultErrorMessage
	}
	return true
}
