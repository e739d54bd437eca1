package submission

import (
	"time"

	"github.com/mbolis/rpe-survey/model"
)

// Outcome is the result of one submit attempt. It is one of Success,
// ValidationFailed, Rejected or NetworkError.
type Outcome interface {
	// Message is safe to show to the athlete.
	Message() string
	outcome()
}

type Success struct {
	Timestamp time.Time
}

type ValidationFailed struct {
	Result model.ValidationResult
}

// Rejected means the endpoint answered with a non-2xx status. StatusCode is
// kept for diagnostics and never shown verbatim.
type Rejected struct {
	StatusCode int
}

// NetworkError means the request never got an HTTP answer.
type NetworkError struct {
	Err error
}

func (Success) outcome()          {}
func (ValidationFailed) outcome() {}
func (Rejected) outcome()         {}
func (NetworkError) outcome()     {}

func (s Success) Message() string {
	return "Thank you! Your response was recorded at " + s.Timestamp.Local().Format("3:04 PM on Jan 2, 2006") + "."
}

func (ValidationFailed) Message() string {
	return "Please correct the highlighted fields."
}

func (Rejected) Message() string {
	return "The server rejected your submission. Please check your answers and try again."
}

func (NetworkError) Message() string {
	return "Could not reach the server. Check your connection and try again."
}
