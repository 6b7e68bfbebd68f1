package message

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("message not found")

// Message is a contact-form submission.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Body      string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitRequest is the public contact form payload.
type SubmitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ValidationError maps form fields to their problems.
type ValidationError map[string]string

func (v ValidationError) Error() string {
	fields := make([]string, 0, len(v))
	for _, f := range []string{"name", "email", "subject", "message"} {
		if msg, ok := v[f]; ok {
			fields = append(fields, f+": "+msg)
		}
	}
	return "invalid message: " + strings.Join(fields, "; ")
}

func lengthBetween(field, value string, min, max int, errs ValidationError) {
	n := utf8.RuneCountInString(value)
	switch {
	case n < min && min == 1:
		errs[field] = field + " is required"
	case n < min:
		errs[field] = fmt.Sprintf("%s must be at least %d characters", field, min)
	case n > max:
		errs[field] = fmt.Sprintf("%s must be less than %d characters", field, max)
	}
}

// Validate trims the request in place and returns a ValidationError when any
// field is out of bounds.
func (r *SubmitRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Message = strings.TrimSpace(r.Message)

	errs := ValidationError{}
	lengthBetween("name", r.Name, 1, 100, errs)
	lengthBetween("subject", r.Subject, 1, 200, errs)
	lengthBetween("message", r.Message, 10, 2000, errs)
	if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != r.Email {
		errs["email"] = "please enter a valid email address"
	} else if len(r.Email) > 255 {
		errs["email"] = "email must be less than 255 characters"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
