// Package validate blocks obviously incomplete forms before a request is sent.
package validate

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/naveenspark/protasker/pkg/client"
	"github.com/naveenspark/protasker/pkg/domain"
)

// Login checks the credentials form.
func Login(r client.LoginRequest) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// Register checks the sign-up form. Only email and password are mandatory.
func Register(r client.RegisterRequest) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(0, 100)),
		validation.Field(&r.LastName, validation.Length(0, 100)),
		validation.Field(&r.Username, validation.Length(0, 50)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// Project checks the project form. Only the name is required.
func Project(r client.ProjectRequest) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.By(notBlank)),
	)
}

// Task checks the task form. Title and description are both required.
func Task(r client.TaskRequest) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.By(notBlank)),
		validation.Field(&r.Description, validation.Required, validation.By(notBlank)),
		validation.Field(&r.Status, validation.By(validStatus)),
	)
}

func notBlank(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

func validStatus(value any) error {
	s, _ := value.(domain.TaskStatus)
	if s == "" || s.Valid() {
		return nil
	}
	return errors.New("must be To Do, In Progress or Done")
}

// Message flattens a validation error into one line for inline display,
// ordered by field name so the output is stable.
func Message(err error) string {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		if err == nil {
			return ""
		}
		return err.Error()
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+errs[k].Error())
	}
	return strings.Join(parts, "; ")
}
