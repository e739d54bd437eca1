// Package form drives one athlete's survey from first keystroke to a recorded
// submission. It holds no rendering logic; callers draw from View snapshots.
package form

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/mbolis/rpe-survey/log"
	"github.com/mbolis/rpe-survey/model"
	"github.com/mbolis/rpe-survey/submission"
	"github.com/mbolis/rpe-survey/validation"
)

type State int

const (
	Idle State = iota
	Submitting
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	ErrSubmitting   = errors.New("a submission is already in progress")
	ErrCompleted    = errors.New("form already submitted")
	ErrUnknownField = errors.New("unknown field")

	errNoOutcome = errors.New("submitter returned no outcome")
)

// Submitter sends a validated payload. *submission.Client implements it.
type Submitter interface {
	Submit(ctx context.Context, payload model.SubmissionPayload) submission.Outcome
}

type Transition struct {
	From, To State
	Outcome  submission.Outcome
}

// View is a render snapshot. It shares nothing with the form.
type View struct {
	FormID        string
	State         State
	Record        model.SurveyRecord
	Errors        model.ValidationResult
	Outcome       submission.Outcome
	Message       string
	SubmitEnabled bool
}

type Form struct {
	id        string
	schema    model.Schema
	submitter Submitter

	mu        sync.Mutex
	state     State
	record    model.SurveyRecord
	errors    model.ValidationResult
	outcome   submission.Outcome
	observers []func(Transition)
}

func New(s model.Schema, submitter Submitter) *Form {
	return &Form{
		id:        uuid.NewString(),
		schema:    s,
		submitter: submitter,
		state:     Idle,
		record:    model.SurveyRecord{},
		errors:    model.ValidationResult{},
	}
}

func (f *Form) ID() string {
	return f.id
}

func (f *Form) Schema() model.Schema {
	return f.schema
}

// OnTransition registers fn to be called, in order, on every state change.
// fn runs with the form unlocked and may call View.
func (f *Form) OnTransition(fn func(Transition)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, fn)
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Set records a new value for one field. Errors already shown for the field
// stay until the next submit attempt.
func (f *Form) Set(name, value string) error {
	if _, ok := f.schema.Field(name); !ok {
		return ErrUnknownField
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case Submitting:
		return ErrSubmitting
	case Success:
		return ErrCompleted
	}
	f.record = f.record.With(name, value)
	return nil
}

// Submit validates the current record and, when it is valid, sends it once.
// The returned outcome is also kept on the form until the next attempt.
func (f *Form) Submit(ctx context.Context) (submission.Outcome, error) {
	f.mu.Lock()
	switch f.state {
	case Submitting:
		f.mu.Unlock()
		return nil, ErrSubmitting
	case Success:
		f.mu.Unlock()
		return nil, ErrCompleted
	}

	from := f.state
	record := f.record
	result := validation.Validate(record, f.schema)
	f.errors = result
	if !result.Valid() {
		out := submission.ValidationFailed{Result: result}
		f.outcome = out
		f.state = Idle
		f.mu.Unlock()
		log.WithFields(log.Fields{"form": f.id, "fields": result.Fields()}).Debug("form.validation_failed")
		if from != Idle {
			f.notify(Transition{From: from, To: Idle, Outcome: out})
		}
		return out, nil
	}

	payload, err := validation.BuildPayload(record, f.schema)
	if err != nil {
		// Validate just passed on the same record
		f.mu.Unlock()
		return nil, err
	}
	f.outcome = nil
	f.state = Submitting
	f.mu.Unlock()
	f.notify(Transition{From: from, To: Submitting})

	out := f.submitter.Submit(ctx, payload)
	if out == nil {
		out = submission.NetworkError{Err: errNoOutcome}
	}

	f.mu.Lock()
	f.outcome = out
	switch out.(type) {
	case submission.Success:
		f.state = Success
		f.record = model.SurveyRecord{}
	default:
		f.state = Failed
	}
	to := f.state
	f.mu.Unlock()

	log.WithFields(log.Fields{"form": f.id, "state": to}).Debug("form.submitted")
	f.notify(Transition{From: Submitting, To: to, Outcome: out})
	return out, nil
}

func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	errs := make(model.ValidationResult, len(f.errors))
	for k, v := range f.errors {
		errs[k] = v
	}
	v := View{
		FormID:        f.id,
		State:         f.state,
		Record:        f.record.Clone(),
		Errors:        errs,
		Outcome:       f.outcome,
		SubmitEnabled: f.state == Idle || f.state == Failed,
	}
	if f.outcome != nil {
		v.Message = f.outcome.Message()
	}
	return v
}

func (f *Form) notify(t Transition) {
	f.mu.Lock()
	observers := make([]func(Transition), len(f.observers))
	copy(observers, f.observers)
	f.mu.Unlock()

	for _, fn := range observers {
		fn(t)
	}
}
