// Package validation checks inbound command payloads before they reach the
// auth service.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/go-playground/validator/v10"
)

const (
	PasswordMinLen = 8
	// PasswordMaxLen is bcrypt's input limit.
	PasswordMaxLen  = 72
	PasswordSymbols = "@$!%*?&"
)

// FieldError describes one failed rule.
type FieldError struct {
	Field string
	Rule  string
}

func (f FieldError) String() string {
	switch f.Rule {
	case "required":
		return f.Field + " is required"
	case "email":
		return f.Field + " must be a valid email"
	case "password":
		return fmt.Sprintf("%s must be %d-%d characters with a lowercase letter, an uppercase letter, a digit and one of %s",
			f.Field, PasswordMinLen, PasswordMaxLen, PasswordSymbols)
	case "role":
		return fmt.Sprintf("%s must be one of %s", f.Field, roleList())
	default:
		return f.Field + " failed " + f.Rule
	}
}

// Error lists every failed field of a payload.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return "Validation failed: " + strings.Join(parts, "; ")
}

type Validator struct {
	validator *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails on an empty tag name or nil func.
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.Role(fl.Field().String()).Valid()
	})

	return &Validator{validator: v}
}

// Validate returns *Error when s breaks any rule.
func (v *Validator) Validate(s any) error {
	err := v.validator.Struct(s)
	if err == nil {
		return nil
	}

	var fieldsErr validator.ValidationErrors
	if !errors.As(err, &fieldsErr) {
		return err
	}

	out := &Error{}
	for _, fe := range fieldsErr {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}

// StrongPassword reports whether p satisfies the password rule.
func StrongPassword(p string) bool {
	if len(p) < PasswordMinLen || len(p) > PasswordMaxLen {
		return false
	}

	var lower, upper, digit, symbol bool
	for _, r := range p {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

func roleList() string {
	roles := models.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
