package upload

import "github.com/amonks/fileconverter/settings"

// DecisionKind is the outcome of the upload gate.
type DecisionKind int

const (
	// DecisionProceed means the file may be uploaded.
	DecisionProceed DecisionKind = iota
	// DecisionRedirect means the configuration must be completed first.
	DecisionRedirect
	// DecisionReject means the file failed validation.
	DecisionReject
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionProceed:
		return "proceed"
	case DecisionRedirect:
		return "redirect-to-configuration"
	case DecisionReject:
		return "reject"
	}
	return "unknown"
}

// Decision is returned by Decide. Reason is set only for DecisionReject.
type Decision struct {
	Kind   DecisionKind
	Reason error
}

// Decide checks the configuration before the file: an incomplete
// configuration redirects regardless of the candidate.
func Decide(candidate Candidate, status settings.Status) Decision {
	if !status.Complete() {
		return Decision{Kind: DecisionRedirect}
	}
	if err := Validate(candidate); err != nil {
		return Decision{Kind: DecisionReject, Reason: err}
	}
	return Decision{Kind: DecisionProceed}
}
