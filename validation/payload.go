package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mbolis/rpe-survey/model"
	"github.com/mbolis/rpe-survey/schema"
)

// NewPayloadValidator returns a validator for the struct tags on
// model.SubmissionPayload. The "position" tag checks against the position
// codes declared in s.
func NewPayloadValidator(s model.Schema) *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	var positions []string
	if f, ok := s.Field(schema.Position); ok {
		positions = f.Constraint.Values
	}
	// only fails if the tag is already registered
	_ = v.RegisterValidation("position", func(fl validator.FieldLevel) bool {
		return contains(positions, fl.Field().String())
	})
	return v
}

// CheckPayload validates a payload received over the wire. Keys of the result
// are the JSON field names.
func CheckPayload(v *validator.Validate, s model.Schema, p model.SubmissionPayload) model.ValidationResult {
	result := model.ValidationResult{}

	err := v.Struct(p)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			result[fe.Field()] = payloadMessage(fe)
		}
	} else if err != nil {
		result["payload"] = err.Error()
	}

	if _, bad := result[schema.Email]; !bad {
		if msg := checkEmail(s, p.Email); msg != "" {
			result[schema.Email] = msg
		}
	}
	return result
}

// checkEmail applies the same local part rule as the form, so that anything
// BuildPayload produces is accepted here.
func checkEmail(s model.Schema, email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 {
		return "email is not a valid email"
	}
	local, domain := email[:i], email[i+1:]
	if s.EmailDomain != "" && !strings.EqualFold(domain, s.EmailDomain) {
		return "email must be an @" + s.EmailDomain + " address"
	}
	if local == "" {
		return "email is not a valid email"
	}
	if f, ok := s.Field(schema.Email); ok && f.Constraint.Pattern != nil && !f.Constraint.Pattern.MatchString(local) {
		return "email is not a valid email"
	}
	return ""
}

func payloadMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min", "max", "len", "oneof":
		return fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s is not a valid %s", fe.Field(), fe.Tag())
	}
}
