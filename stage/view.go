// Package stage projects a conversion session into what a user sees: an
// overall percentage, a step list and an elapsed clock.
package stage

import (
	"fmt"
	"math"

	"github.com/amonks/fileconverter/conversion"
)

// StepState is the display state of one step.
type StepState string

const (
	StepPending StepState = "pending"
	StepActive  StepState = "active"
	StepDone    StepState = "done"
	StepFailed  StepState = "failed"
)

// Step is one labelled entry of the step list.
type Step struct {
	Label string
	State StepState
}

// View is the display model of a session.
type View struct {
	FileName         string
	Status           conversion.Status
	OverallPercent   int
	CurrentStepIndex int
	StepLabels       []string
	Steps            []Step
	Elapsed          string
	// Initializing is true while the service has not reported any steps.
	Initializing bool
	Error        string
}

// Project builds the view of a session. It never mutates the session.
func Project(session conversion.Session) View {
	view := View{
		FileName:       session.FileName,
		Status:         session.Status,
		OverallPercent: int(math.Round(min(max(session.Progress, 0), 100))),
		Elapsed:        FormatElapsed(session.Elapsed),
		Error:          session.Error,
	}
	if session.Status == conversion.StatusCompleted {
		view.OverallPercent = 100
	}

	if len(session.Steps) == 0 {
		view.Initializing = !session.Status.IsTerminal()
		return view
	}

	current := min(max(session.CurrentStep, 0), len(session.Steps)-1)
	view.CurrentStepIndex = current
	view.StepLabels = append([]string(nil), session.Steps...)
	view.Steps = make([]Step, len(session.Steps))
	for i, label := range session.Steps {
		view.Steps[i] = Step{Label: label, State: stepState(session.Status, i, current)}
	}
	return view
}

func stepState(status conversion.Status, index, current int) StepState {
	switch {
	case status == conversion.StatusCompleted:
		return StepDone
	case index < current:
		return StepDone
	case index > current:
		return StepPending
	case status == conversion.StatusFailed:
		return StepFailed
	default:
		return StepActive
	}
}

// FormatElapsed renders seconds as M:SS. Negative values render as 0:00.
func FormatElapsed(seconds int) string {
	seconds = max(seconds, 0)
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
