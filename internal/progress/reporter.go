package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/amonks/fileconverter/conversion"
	"github.com/amonks/fileconverter/stage"
	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
)

// Reporter follows a conversion. Interactive reporters animate a spinner
// and a progress bar; plain reporters print one line per state or step
// change so output stays stable in logs and pipes.
type Reporter struct {
	out         io.Writer
	interactive bool

	mu       sync.Mutex
	spinner  *spinner.Spinner
	bar      *progressbar.ProgressBar
	status   conversion.Status
	step     int
	hasSteps bool
	finished bool
}

// NewReporter creates a reporter writing to out.
func NewReporter(out io.Writer, interactive bool) *Reporter {
	return &Reporter{out: out, interactive: interactive, step: -1}
}

// Update renders a new view. It is safe to call from the orchestrator's
// update callback.
func (r *Reporter) Update(view stage.View) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finished {
		return
	}
	if r.interactive {
		r.updateInteractive(view)
	} else {
		r.updatePlain(view)
	}
	r.status = view.Status
	if len(view.Steps) > 0 {
		r.hasSteps = true
		r.step = view.CurrentStepIndex
	}
}

// Finish stops any animation. Later updates are ignored.
func (r *Reporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finished {
		return
	}
	r.finished = true
	r.stopSpinner()
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
}

func (r *Reporter) updatePlain(view stage.View) {
	if view.Status != r.status {
		switch view.Status {
		case conversion.StatusUploading:
			fmt.Fprintf(r.out, "Uploading %s\n", view.FileName)
		case conversion.StatusStarting:
			fmt.Fprintln(r.out, "Starting conversion")
		case conversion.StatusPolling:
			fmt.Fprintln(r.out, "Converting")
		}
	}
	if view.Status.IsTerminal() || len(view.Steps) == 0 {
		return
	}
	if !r.hasSteps || view.CurrentStepIndex != r.step {
		fmt.Fprintf(r.out, "Step %d/%d: %s\n", view.CurrentStepIndex+1, len(view.Steps), view.Steps[view.CurrentStepIndex].Label)
	}
}

func (r *Reporter) updateInteractive(view stage.View) {
	if view.Status.IsTerminal() {
		r.stopSpinner()
		if r.bar != nil {
			_ = r.bar.Set(view.OverallPercent)
			_ = r.bar.Finish()
			r.bar = nil
		}
		return
	}

	if view.Initializing || view.Status != conversion.StatusPolling {
		r.startSpinner(spinnerMessage(view))
		return
	}

	r.stopSpinner()
	if r.bar == nil {
		r.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(r.out),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "█",
				SaucerHead:    "█",
				SaucerPadding: "░",
				BarStart:      "│",
				BarEnd:        "│",
			}),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(r.out, "\n")
			}),
			progressbar.OptionSetRenderBlankState(true),
		)
	}
	label := view.Steps[view.CurrentStepIndex].Label
	r.bar.Describe(fmt.Sprintf("[%d/%d] %s", view.CurrentStepIndex+1, len(view.Steps), label))
	_ = r.bar.Set(view.OverallPercent)
}

func spinnerMessage(view stage.View) string {
	switch view.Status {
	case conversion.StatusUploading:
		return "Uploading " + view.FileName
	case conversion.StatusStarting:
		return "Starting conversion"
	}
	return "Initializing " + view.Elapsed
}

func (r *Reporter) startSpinner(message string) {
	if r.spinner == nil {
		r.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(r.out))
		r.spinner.Suffix = " " + message
		r.spinner.Start()
		return
	}
	r.spinner.Lock()
	r.spinner.Suffix = " " + message
	r.spinner.Unlock()
}

func (r *Reporter) stopSpinner() {
	if r.spinner != nil {
		r.spinner.Stop()
		r.spinner = nil
	}
}
