package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mbolis/rpe-survey/model"
	"github.com/mbolis/rpe-survey/schema"
)

var ErrInvalidRecord = errors.New("record has validation errors")

// Validate checks every field of s against record, in schema order, and
// returns one message per failing field. It never mutates record.
func Validate(record model.SurveyRecord, s model.Schema) model.ValidationResult {
	result := model.ValidationResult{}
	for _, f := range s.Fields {
		value := strings.TrimSpace(record[f.Name])
		if value == "" {
			if f.Required {
				result[f.Name] = f.Label + " is required"
			}
			continue
		}
		if msg := checkField(f, value); msg != "" {
			result[f.Name] = msg
		}
	}
	return result
}

func checkField(f model.FieldDefinition, value string) string {
	c := f.Constraint
	switch f.Kind {
	case model.KindText:
		if c.Pattern != nil && !c.Pattern.MatchString(value) {
			return f.Label + " is not valid"
		}
	case model.KindEmailLocalPart:
		if strings.Contains(value, "@") {
			return f.Label + " should not include the @ or domain"
		}
		if c.Pattern != nil && !c.Pattern.MatchString(value) {
			return f.Label + " may only contain letters, digits and . _ % + -"
		}
	case model.KindFixedLengthDigits:
		if len(value) != c.Length || !allDigits(value) {
			return fmt.Sprintf("%s must be exactly %d digits", f.Label, c.Length)
		}
	case model.KindEnum:
		if !contains(c.Values, value) {
			return fmt.Sprintf("%s must be one of %s", f.Label, strings.Join(c.Values, ", "))
		}
	case model.KindNumericRange:
		n, err := strconv.Atoi(value)
		if err != nil {
			return f.Label + " must be a whole number"
		}
		if n < c.Min {
			return fmt.Sprintf("%s must be at least %d", f.Label, c.Min)
		}
		if n > c.Max {
			return fmt.Sprintf("%s must not be more than %d", f.Label, c.Max)
		}
	default:
		return fmt.Sprintf("%s has unsupported kind %q", f.Label, f.Kind)
	}
	return ""
}

// BuildPayload resolves a valid record into its wire shape. Records that do
// not validate are refused with ErrInvalidRecord.
func BuildPayload(record model.SurveyRecord, s model.Schema) (model.SubmissionPayload, error) {
	if result := Validate(record, s); !result.Valid() {
		return model.SubmissionPayload{}, fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(result.Fields(), ", "))
	}

	get := func(name string) string {
		return strings.TrimSpace(record[name])
	}
	intensity, err := strconv.Atoi(get(schema.IntensityLevel))
	if err != nil {
		return model.SubmissionPayload{}, fmt.Errorf("%w: %s", ErrInvalidRecord, schema.IntensityLevel)
	}

	return model.SubmissionPayload{
		FirstName:        get(schema.FirstName),
		LastName:         get(schema.LastName),
		Email:            get(schema.Email) + "@" + s.EmailDomain,
		Last4:            get(schema.Last4),
		Position:         get(schema.Position),
		SummerAttendance: get(schema.SummerAttendance),
		IntensityLevel:   intensity,
	}, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func contains(slice []string, val string) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}
