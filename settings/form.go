package settings

import (
	"context"
	"errors"
	"fmt"
)

// FormState is the mode of the settings form.
type FormState int

const (
	// FormLoading means the form is waiting for the service's configuration.
	FormLoading FormState = iota
	// FormViewing shows a complete configuration read-only.
	FormViewing
	// FormEditing accepts changes to a draft.
	FormEditing
)

func (s FormState) String() string {
	switch s {
	case FormLoading:
		return "loading"
	case FormViewing:
		return "viewing"
	case FormEditing:
		return "editing"
	}
	return fmt.Sprintf("FormState(%d)", int(s))
}

var (
	// ErrReadOnly indicates a change was attempted outside edit mode.
	ErrReadOnly = errors.New("configuration is read-only until edit mode is requested")
	// ErrNotEditing indicates a save or cancel was attempted outside edit mode.
	ErrNotEditing = errors.New("settings form is not in edit mode")
	// ErrNotLoaded indicates the form has not loaded the configuration yet.
	ErrNotLoaded = errors.New("settings form has not been loaded")
)

// Form drives the settings screen. A complete configuration is read-only
// until Edit is called; Cancel always reloads from the service.
type Form struct {
	store *Store
	state FormState
	saved Configuration
	draft Configuration
	err   error
}

// NewForm creates a form in the loading state.
func NewForm(store *Store) *Form {
	return &Form{store: store, state: FormLoading}
}

// State returns the current form mode.
func (f *Form) State() FormState {
	return f.state
}

// Err returns the error of the last failed save, if any.
func (f *Form) Err() error {
	return f.err
}

// Values returns the draft while editing and the saved configuration otherwise.
func (f *Form) Values() Configuration {
	if f.state == FormEditing {
		return f.draft
	}
	return f.saved
}

// Load fetches the configuration from the service. A complete configuration
// opens read-only; anything else opens for editing.
func (f *Form) Load(ctx context.Context) error {
	f.state = FormLoading
	status, err := f.store.Check(ctx)
	if err != nil {
		return err
	}
	f.saved = status.Configuration
	f.draft = status.Configuration
	f.err = nil
	if status.Complete() {
		f.state = FormViewing
	} else {
		f.state = FormEditing
	}
	return nil
}

// Edit switches a read-only form into edit mode.
func (f *Form) Edit() error {
	switch f.state {
	case FormLoading:
		return ErrNotLoaded
	case FormViewing:
		f.draft = f.saved
		f.state = FormEditing
	}
	return nil
}

// Set changes one field of the draft.
func (f *Form) Set(field Field, value string) error {
	if f.state != FormEditing {
		return ErrReadOnly
	}
	updated, err := f.draft.With(field, value)
	if err != nil {
		return err
	}
	f.draft = updated
	return nil
}

// Save stores the draft. On failure the form stays in edit mode with the
// draft intact.
func (f *Form) Save(ctx context.Context) error {
	if f.state != FormEditing {
		return ErrNotEditing
	}
	if err := f.store.Save(ctx, f.draft); err != nil {
		f.err = err
		return err
	}
	saved, _ := f.store.Last()
	f.saved = saved.Configuration
	f.draft = saved.Configuration
	f.err = nil
	f.state = FormViewing
	return nil
}

// Cancel discards the draft and reloads the last known-good configuration
// from the service.
func (f *Form) Cancel(ctx context.Context) error {
	if f.state != FormEditing {
		return ErrNotEditing
	}
	return f.Load(ctx)
}
