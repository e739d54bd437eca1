// Package schema declares the fields of the RPE survey form.
package schema

import (
	"regexp"

	"github.com/mbolis/rpe-survey/model"
)

const (
	Email            = "email"
	Last4            = "last4"
	LastName         = "lastName"
	FirstName        = "firstName"
	Position         = "position"
	SummerAttendance = "summerAttendance"
	IntensityLevel   = "intensityLevel"
)

const DefaultEmailDomain = "truman.edu"

var (
	Positions  = []string{"QB", "RB", "WR", "TE", "OL", "DL", "LB", "DB", "K", "P", "LS"}
	Attendance = []string{"yes", "no"}

	emailLocalPart = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+$`)
)

// RPE returns the athlete survey schema. The email field only holds the local
// part; emailDomain is appended when the payload is built.
func RPE(emailDomain string) model.Schema {
	if emailDomain == "" {
		emailDomain = DefaultEmailDomain
	}
	return model.Schema{
		EmailDomain: emailDomain,
		Fields: []model.FieldDefinition{
			{
				Name:       Email,
				Label:      "Email",
				Kind:       model.KindEmailLocalPart,
				Required:   true,
				Constraint: model.Constraint{Pattern: emailLocalPart},
			},
			{
				Name:       Last4,
				Label:      "Last 4 Digits",
				Kind:       model.KindFixedLengthDigits,
				Required:   true,
				Constraint: model.Constraint{Length: 4},
			},
			{
				Name:     LastName,
				Label:    "Last Name",
				Kind:     model.KindText,
				Required: true,
			},
			{
				Name:     FirstName,
				Label:    "First Name",
				Kind:     model.KindText,
				Required: true,
			},
			{
				Name:       Position,
				Label:      "Position",
				Kind:       model.KindEnum,
				Required:   true,
				Constraint: model.Constraint{Values: Positions},
			},
			{
				Name:       SummerAttendance,
				Label:      "Summer Attendance",
				Kind:       model.KindEnum,
				Required:   true,
				Constraint: model.Constraint{Values: Attendance},
			},
			{
				Name:       IntensityLevel,
				Label:      "Intensity Level",
				Kind:       model.KindNumericRange,
				Required:   true,
				Constraint: model.Constraint{Min: 1, Max: 10},
			},
		},
	}
}
