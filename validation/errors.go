package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a JSON field name to a message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field unless msg is empty or field already has a message.
func (e FieldErrors) Add(field, msg string) {
	if msg == "" {
		return
	}
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// OrNil returns nil for an empty map so callers can return it as an error directly.
func (e FieldErrors) OrNil() FieldErrors {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Err converts to error without producing a typed nil.
func (e FieldErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Conflict reports a write that clashes with existing data, such as a taken slug.
type Conflict struct {
	Field   string
	Message string
}

func (c *Conflict) Error() string {
	return c.Message
}

func NewConflict(field, format string, args ...any) *Conflict {
	return &Conflict{Field: field, Message: fmt.Sprintf(format, args...)}
}

// FromBinding converts errors returned by gin's ShouldBind* into FieldErrors.
func FromBinding(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := FieldErrors{}
		for _, fe := range verrs {
			out.Add(fieldName(fe), message(fe))
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return FieldErrors{field: fmt.Sprintf("must be a %s", typeErr.Type.String())}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return FieldErrors{"body": "invalid JSON body"}
	}

	return FieldErrors{"body": err.Error()}
}

func fieldName(fe validator.FieldError) string {
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "contact_email":
		return ValidateEmail(fmt.Sprint(fe.Value()))
	case "url":
		return "must be a valid URL"
	case "slug":
		return "must contain only lowercase letters, digits and hyphens"
	case "datetime":
		return fmt.Sprintf("must match the format %s", fe.Param())
	case "contact_name":
		return ValidateName(fmt.Sprint(fe.Value()))
	case "contact_phone":
		return ValidatePhone(fmt.Sprint(fe.Value()))
	}
	return "is invalid"
}

// Merge copies the field errors of err under prefix, e.g. "faq[0].".
// Errors that are not FieldErrors are stored under the prefix itself.
func (e FieldErrors) Merge(prefix string, err error) {
	if err == nil {
		return
	}
	var fe FieldErrors
	if errors.As(err, &fe) {
		for k, v := range fe {
			e.Add(prefix+k, v)
		}
		return
	}
	e.Add(strings.TrimSuffix(prefix, "."), err.Error())
}
