package model

import (
	"encoding/json"
	"regexp"
	"sort"
)

type Kind string

const (
	KindText              Kind = "text"
	KindEmailLocalPart    Kind = "email-local-part"
	KindNumericRange      Kind = "numeric-range"
	KindEnum              Kind = "enum"
	KindFixedLengthDigits Kind = "fixed-length-digits"
)

// Constraint holds whichever rule applies to a field's Kind. Unused members
// stay at their zero value.
type Constraint struct {
	Pattern *regexp.Regexp `json:"-"`
	Min     int            `json:"min,omitempty"`
	Max     int            `json:"max,omitempty"`
	Values  []string       `json:"values,omitempty"`
	Length  int            `json:"length,omitempty"`
}

func (c Constraint) MarshalJSON() ([]byte, error) {
	type plain Constraint
	out := struct {
		plain
		Pattern string `json:"pattern,omitempty"`
	}{plain: plain(c)}
	if c.Pattern != nil {
		out.Pattern = c.Pattern.String()
	}
	return json.Marshal(out)
}

type FieldDefinition struct {
	Name       string     `json:"name"`
	Label      string     `json:"label"`
	Kind       Kind       `json:"kind"`
	Required   bool       `json:"required"`
	Constraint Constraint `json:"constraint"`
}

// Schema is the ordered list of fields of a form, plus the institutional
// domain appended to email local parts.
type Schema struct {
	Fields      []FieldDefinition `json:"fields"`
	EmailDomain string            `json:"emailDomain"`
}

func (s Schema) Field(name string) (FieldDefinition, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// SurveyRecord maps field names to their current raw input.
type SurveyRecord map[string]string

// With returns a copy of the record with name set to value. The receiver is
// left untouched so earlier snapshots stay valid.
func (r SurveyRecord) With(name, value string) SurveyRecord {
	next := r.Clone()
	next[name] = value
	return next
}

func (r SurveyRecord) Clone() SurveyRecord {
	next := make(SurveyRecord, len(r)+1)
	for k, v := range r {
		next[k] = v
	}
	return next
}

// ValidationResult maps field names to error messages. An empty result means
// the record is valid.
type ValidationResult map[string]string

func (v ValidationResult) Valid() bool {
	return len(v) == 0
}

// Fields returns the names of the invalid fields, sorted.
func (v ValidationResult) Fields() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SubmissionPayload is the wire shape posted to the collection endpoint.
type SubmissionPayload struct {
	FirstName        string `json:"firstName" validate:"required"`
	LastName         string `json:"lastName" validate:"required"`
	Email            string `json:"email" validate:"required"`
	Last4            string `json:"last4" validate:"required,len=4,number"`
	Position         string `json:"position" validate:"required,position"`
	SummerAttendance string `json:"summerAttendance" validate:"required,oneof=yes no"`
	IntensityLevel   int    `json:"intensityLevel" validate:"required,min=1,max=10"`
}

type PositionAverage struct {
	Position string  `json:"position"`
	Average  float64 `json:"average"`
	Athletes int     `json:"athletes"`
	Rank     int     `json:"rank"`
}

type DailyAverage struct {
	Day      string  `json:"day"`
	Position string  `json:"position"`
	Average  float64 `json:"average"`
}

type Summary struct {
	TeamAverage float64 `json:"teamAverage"`
	Athletes    int     `json:"athletes"`
	Sessions    int     `json:"sessions"`
}
