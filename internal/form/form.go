// Package form checks user input before it reaches a store.
//
// The stores validate nothing; presentation code runs these first and shows
// the message of the returned *apperror.AppError next to AppError.Field.
// Inputs are trimmed (and tags normalized) before the rules are applied,
// and the cleaned value is returned so callers submit exactly what passed.
package form

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report wire names ("title", "tags[0]") instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return lowerFirst(fld.Name)
		}
		return name
	})
	return v
}

// messages holds the wording of the forum's forms, keyed by "field.rule".
var messages = map[string]string{
	"title.required":       "Please enter a title",
	"title.min":            "Title must be at least 10 characters long",
	"title.max":            "Title must be less than 200 characters",
	"description.required": "Please enter a description",
	"description.min":      "Description must be at least 20 characters long",
	"description.max":      "Description must be less than 5000 characters",
	"tags.min":             "Please add at least one tag",
	"tags.max":             "You can add at most 10 tags",
	"tag.max":              "Tags must be at most 35 characters",
	"content.required":     "Please enter your answer",
	"questionID.required":  "Answer is missing its question",
	"questionID.gt":        "Answer is missing its question",
	"email.required":       "Please enter your email",
	"password.required":    "Please enter your password",
}

// Question cleans and checks the ask-question form.
func Question(in model.QuestionInput) (model.QuestionInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Tags = NormalizeTags(in.Tags)
	return in, check(in)
}

// Answer cleans and checks the answer form.
func Answer(in model.AnswerInput) (model.AnswerInput, error) {
	in.Content = strings.TrimSpace(in.Content)
	return in, check(in)
}

// Login cleans and checks the login form. Passwords are never trimmed.
func Login(in model.LoginInput) (model.LoginInput, error) {
	in.Email = strings.TrimSpace(in.Email)
	return in, check(in)
}

// Register cleans and checks the registration form.
func Register(in model.RegisterInput) (model.RegisterInput, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	return in, check(in)
}

// NormalizeTags trims and lowercases tags, dropping empty and repeated ones
// while keeping the order they were entered in.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// check runs the struct rules and reports the first failing field.
func check(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.ValidationFailed("", err.Error())
	}
	first := verrs[0]
	return apperror.ValidationFailed(first.Field(), fieldMessage(first))
}

func fieldMessage(e validator.FieldError) string {
	field := e.Field()
	if strings.HasPrefix(field, "tags[") {
		field = "tag"
	}
	if msg, ok := messages[field+"."+e.Tag()]; ok {
		return msg
	}

	name := strings.ToLower(field)
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, e.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", name)
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
