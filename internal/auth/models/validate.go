package models

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "leadbook/pkg/domain-errors"
)

var validate = validator.New()

var fieldNames = map[string]string{"Email": "email", "Name": "name"}

// Normalize trims both fields and lowercases the email.
func (r *SignInRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
}

// Validate checks the struct tags and reports failures as field errors.
func (r *SignInRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid sign-in request")
	}
	var fe dErrors.FieldErrors
	for _, v := range verrs {
		field := fieldNames[v.StructField()]
		switch v.Tag() {
		case "required":
			fe.Add(field, field+" is required")
		case "email":
			fe.Add(field, "Invalid email address")
		case "max":
			fe.Add(field, field+" must be at most "+v.Param()+" characters")
		default:
			fe.Add(field, "Invalid value")
		}
	}
	return dErrors.Validation(fe)
}
