package request

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// RegisterForm binds the multipart registration submission. The avatar file
// part is handled separately by the handler. Password fields are never
// echoed back into an Outcome.
type RegisterForm struct {
	Username  string `form:"username" binding:"required,max=150,username"`
	Email     string `form:"email" binding:"required,email,max=254"`
	Location  string `form:"location" binding:"omitempty,max=30"`
	BirthDate string `form:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	Bio       string `form:"bio" binding:"omitempty,max=500"`
	Password1 string `form:"password1" binding:"required"`
	Password2 string `form:"password2" binding:"required"`
}

// ParsedBirthDate returns the birth date as a time value, nil when absent.
// Call only after binding has validated the format.
func (f *RegisterForm) ParsedBirthDate() *time.Time {
	if f.BirthDate == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", f.BirthDate)
	if err != nil {
		return nil
	}
	return &t
}

type LoginForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
}

// Outcome carries the accepted field values and the field-level errors back
// to the template on re-render.
type Outcome struct {
	Values map[string]string
	Errors map[string]string
}

func NewOutcome() *Outcome {
	return &Outcome{
		Values: make(map[string]string),
		Errors: make(map[string]string),
	}
}

// AddError attaches a message to a field. The first message per field wins.
func (o *Outcome) AddError(field, msg string) {
	if _, ok := o.Errors[field]; !ok {
		o.Errors[field] = msg
	}
}

func (o *Outcome) OK() bool {
	return len(o.Errors) == 0
}

// Outcome snapshots the submitted values for re-rendering, minus passwords.
func (f *RegisterForm) Outcome() *Outcome {
	o := NewOutcome()
	o.Values["username"] = f.Username
	o.Values["email"] = f.Email
	o.Values["location"] = f.Location
	o.Values["birth_date"] = f.BirthDate
	o.Values["bio"] = f.Bio
	return o
}

// Outcome retains the submitted email on login re-render.
func (f *LoginForm) Outcome() *Outcome {
	o := NewOutcome()
	o.Values["email"] = f.Email
	return o
}

// formNames maps struct fields back to the form field names templates use.
var formNames = map[string]string{
	"Username":  "username",
	"Email":     "email",
	"Location":  "location",
	"BirthDate": "birth_date",
	"Bio":       "bio",
	"Password1": "password1",
	"Password2": "password2",
	"Password":  "password",
}

// FieldErrors translates a gin binding error into per-field messages.
// Non-validator errors (unreadable body, bad multipart) collapse into a
// single form-wide message under the empty field name.
func FieldErrors(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out[""] = "Invalid form submission."
		return out
	}
	for _, fe := range verrs {
		name, ok := formNames[fe.Field()]
		if !ok {
			name = fe.Field()
		}
		if _, dup := out[name]; dup {
			continue
		}
		out[name] = messageFor(fe)
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return "Ensure this value has at most " + fe.Param() + " characters."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	case "datetime":
		return "Enter a valid date."
	default:
		return "Enter a valid value."
	}
}
