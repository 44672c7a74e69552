package core

// validation.go checks a candidate UserRecord before anything touches the store.
//
// Rules live in the struct tags of UserRecord and are enforced by
// go-playground/validator. Each failing field yields exactly one message,
// taken from fieldMessages so the wording stays stable for API clients.

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError is a single field-level violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationError is returned when a candidate record fails the schema.
// No I/O has been attempted when this error is produced.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Message returns the message recorded for field, or "" if it passed.
func (e *ValidationError) Message(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// fieldMessages maps json field name -> failing tag -> message.
var fieldMessages = map[string]map[string]string{
	"email": {
		"required": "Email is required",
		"email":    "Invalid email",
	},
	"first_name": {
		"required": "First name is required",
		"alpha":    "First name must only contain letters",
	},
	"last_name": {
		"required": "Last name is required",
		"alpha":    "Last name must only contain letters",
	},
	"gender": {
		"gender": "Gender must be one of: " + genderList(),
	},
	"profile_image_url": {
		"url": "Invalid URL",
	},
	"user_id": {
		"required": "User ID is required",
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names so messages line up with the wire format.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		return Gender(fl.Field().String()).Valid()
	}); err != nil {
		panic(fmt.Sprintf("register gender validation: %v", err))
	}
	return v
}

// Validate checks rec against the registration schema and returns every
// violation in field order. An empty result means rec may be written.
func Validate(rec UserRecord) []FieldError {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Message: messageFor(fe.Field(), fe.Tag()),
		})
	}
	return out
}

// Validate returns a *ValidationError describing every violation, or nil.
func (u UserRecord) Validate() error {
	if fields := Validate(u); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func messageFor(field, tag string) string {
	if msg, ok := fieldMessages[field][tag]; ok {
		return msg
	}
	return fmt.Sprintf("failed %q check", tag)
}

func genderList() string {
	names := make([]string, len(Genders))
	for i, g := range Genders {
		names[i] = string(g)
	}
	return strings.Join(names, ", ")
}
