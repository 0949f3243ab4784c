package session

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"ethicure/pkg/domain"
)

// Registration is the sign-up form as submitted.
type Registration struct {
	Role      string `json:"role" validate:"required,oneof=patient doctor admin pharmacist staff"`
	FirstName string `json:"firstName" validate:"min=2"`
	LastName  string `json:"lastName" validate:"min=2"`
	Email     string `json:"email" validate:"loose_email"`
	Username  string `json:"username" validate:"min=3"`
	Password  string `json:"password" validate:"min=6"`
}

// Credentials is the login form as submitted.
type Credentials struct {
	Username string `json:"username" validate:"min=3"`
	Password string `json:"password" validate:"min=6"`
}

// Messages shown next to form fields.
const (
	MsgRole          = "Please choose a role."
	MsgFirstName     = "First name is required."
	MsgLastName      = "Last name is required."
	MsgEmail         = "Please enter a valid email address."
	MsgUsername      = "Username must be at least 3 characters."
	MsgPassword      = "Password must be at least 6 characters."
	MsgUsernameTaken = "This username is already taken."
	MsgInvalidLogin  = "Invalid username or password"
)

var fieldMessages = map[string]string{
	"role":      MsgRole,
	"firstName": MsgFirstName,
	"lastName":  MsgLastName,
	"email":     MsgEmail,
	"username":  MsgUsername,
	"password":  MsgPassword,
}

var looseEmail = regexp.MustCompile(`^\S+@\S+\.\S+$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.Split(f.Tag.Get("json"), ",")[0]
	})
	_ = v.RegisterValidation("loose_email", func(fl validator.FieldLevel) bool {
		return looseEmail.MatchString(fl.Field().String())
	})
	return v
}

// trimmed returns the registration with every text field trimmed except the
// password, which is kept verbatim.
func (r Registration) trimmed() Registration {
	return Registration{
		Role:      strings.TrimSpace(r.Role),
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		Email:     strings.TrimSpace(r.Email),
		Username:  strings.TrimSpace(r.Username),
		Password:  r.Password,
	}
}

// check validates form with lengths measured after trimming, mapping every
// failing field onto its form message.
func check(v *validator.Validate, form any) error {
	err := v.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := domain.FieldErrors{}
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fe.Error()
		}
		fields.Add(fe.Field(), msg)
	}
	return fields.Err()
}

func validateRegistration(v *validator.Validate, r Registration) error {
	probe := r.trimmed()
	probe.Password = strings.TrimSpace(probe.Password)
	return check(v, probe)
}

func validateCredentials(v *validator.Validate, c Credentials) error {
	return check(v, Credentials{
		Username: strings.TrimSpace(c.Username),
		Password: strings.TrimSpace(c.Password),
	})
}
