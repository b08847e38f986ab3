package conversion

import (
	"testing"

	"github.com/amonks/fileconverter/api"
)

func TestSessionFromProgress(t *testing.T) {
	tests := []struct {
		name     string
		progress api.Progress
		status   Status
		errMsg   string
	}{
		{name: "running", progress: api.Progress{Status: "running", Progress: 40}, status: StatusPolling},
		{name: "pending", progress: api.Progress{Status: "pending"}, status: StatusPolling},
		{name: "completed", progress: api.Progress{Status: "completed", Progress: 100}, status: StatusCompleted},
		{name: "error with message", progress: api.Progress{Status: "error", ErrorMessage: "Invalid PDF structure"}, status: StatusFailed, errMsg: "Invalid PDF structure"},
		{name: "error without message", progress: api.Progress{Status: "ERROR"}, status: StatusFailed, errMsg: DefaultErrorMessage},
		{name: "padded completed", progress: api.Progress{Status: " Completed "}, status: StatusCompleted},
		{name: "error with blank message", progress: api.Progress{Status: "error", ErrorMessage: " \n\t"}, status: StatusFailed, errMsg: DefaultErrorMessage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			session := SessionFromProgress("s-1", tc.progress)
			if session.ID != "s-1" {
				t.Fatalf("expected session id s-1, got %q", session.ID)
			}
			if session.Status != tc.status {
				t.Fatalf("expected status %s, got %s", tc.status, session.Status)
			}
			if session.Error != tc.errMsg {
				t.Fatalf("expected error %q, got %q", tc.errMsg, session.Error)
			}
		})
	}
}

func TestSessionFromProgressClampsValues(t *testing.T) {
	session := SessionFromProgress("s-1", api.Progress{
		Status:      "running",
		Progress:    140,
		CurrentStep: -2,
		ElapsedTime: -5,
		CurrentFile: "ABCD_form.pdf",
	})
	if session.Progress != 100 {
		t.Fatalf("expected progress clamped to 100, got %v", session.Progress)
	}
	if session.CurrentStep != 0 {
		t.Fatalf("expected current step 0, got %d", session.CurrentStep)
	}
	if session.Elapsed != 0 {
		t.Fatalf("expected elapsed 0, got %d", session.Elapsed)
	}
	if session.FileName != "ABCD_form.pdf" {
		t.Fatalf("expected file name from current_file, got %q", session.FileName)
	}
}
