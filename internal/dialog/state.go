package dialog

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a transition is not allowed from
// the current phase.
var ErrInvalidTransition = errors.New("invalid dialog transition")

// Phase is the position of the dialog in its lifecycle. Completion is not a
// phase of its own: a successful submission goes straight back to closed.
type Phase string

const (
	PhaseClosed     Phase = "closed"
	PhasePending    Phase = "pending"
	PhaseSubmitting Phase = "submitting"
	PhaseErrored    Phase = "errored"
)

// Props is what the host renders for an open dialog.
type Props struct {
	Title       string
	Body        string
	ConfirmText string
	FullScreen  bool
}

// State is the dialog state. It is a value: transitions return a new State
// and leave the receiver untouched.
type State struct {
	Phase   Phase
	Action  Action
	Props   Props
	Err     error
	Loading bool
}

// Closed returns the initial state.
func Closed() State {
	return State{Phase: PhaseClosed}
}

// Open selects action and shows its dialog. It is refused while a
// submission is in flight.
func (s State) Open(action Action, props Props) (State, error) {
	if s.Phase == PhaseSubmitting {
		return s, s.invalid("open")
	}
	return State{
		Phase:  PhasePending,
		Action: action,
		Props:  props,
	}, nil
}

// Submit starts a submission from pending or, to retry by hand, errored.
func (s State) Submit() (State, error) {
	if s.Phase != PhasePending && s.Phase != PhaseErrored {
		return s, s.invalid("submit")
	}
	s.Phase = PhaseSubmitting
	s.Err = nil
	s.Loading = true
	return s, nil
}

// Fail records a failed submission. The dialog stays open.
func (s State) Fail(err error) (State, error) {
	if s.Phase != PhaseSubmitting {
		return s, s.invalid("fail")
	}
	s.Phase = PhaseErrored
	s.Err = err
	s.Loading = false
	return s, nil
}

// Complete closes the dialog after a successful submission.
func (s State) Complete() (State, error) {
	if s.Phase != PhaseSubmitting {
		return s, s.invalid("complete")
	}
	return Closed(), nil
}

// Dismiss closes the dialog from any phase.
func (s State) Dismiss() State {
	return Closed()
}

// WithProps replaces the props of a visible dialog that is not submitting.
func (s State) WithProps(props Props) (State, error) {
	if s.Phase != PhasePending && s.Phase != PhaseErrored {
		return s, s.invalid("update")
	}
	s.Props = props
	return s, nil
}

// IsOpen reports whether the dialog is visible.
func (s State) IsOpen() bool {
	return s.Phase != PhaseClosed
}

func (s State) invalid(op string) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, s.Phase)
}
