package models

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// required only rejects "", notblank also rejects whitespace.
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

// messages holds the user-facing text for "<field>.<tag>" failures.
var messages = map[string]string{
	"name.required":       "The Category name is required",
	"name.notblank":       "The Category name is required",
	"name.max":            "Category name cannot exceed 100 characters",
	"title.required":      "The title is required.",
	"title.notblank":      "The title is required.",
	"title.max":           "Title length cannot exceed 200 character",
	"content.required":    "The content is required",
	"content.notblank":    "The content is required",
	"author.max":          "Author name length cannot exceed 100 character",
	"categoryId.required": "Please select a category.",
	"userName.required":   "The username is required",
	"userName.notblank":   "The username is required",
	"userName.max":        "The username cannot exceed 100 characters",
	"postId.required":     "The post is required",
}

// FieldErrors maps a form field name to the message shown next to it.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has a message.
func (fe FieldErrors) Add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

// Validate runs the struct tag rules on v. It returns nil when v is valid,
// FieldErrors for rule violations and a plain error when v cannot be validated.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate %T: %w", v, err)
	}

	fe := FieldErrors{}
	for _, e := range verrs {
		fe.Add(e.Field(), messageFor(e))
	}
	return fe
}

func messageFor(e validator.FieldError) string {
	if msg, ok := messages[e.Field()+"."+e.Tag()]; ok {
		return msg
	}
	if e.Param() != "" {
		return fmt.Sprintf("%s is invalid (%s=%s)", e.Field(), e.Tag(), e.Param())
	}
	return fmt.Sprintf("%s is invalid (%s)", e.Field(), e.Tag())
}
