package serializer

import (
	"io"
	"strings"

	"github.com/dukerupert/chorify/internal/model"
	"github.com/dukerupert/chorify/internal/optional"
)

const msgPasswordMatch = "the two password fields didn't match"

// NormalizeEmail trims the address and lowercases its domain part. The
// local part is left as typed.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return email
	}
	return email[:at] + strings.ToLower(email[at:])
}

// User is the public shape of an account, embedded as "user" in owned
// records and returned by the account endpoints.
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
	IsStaff  bool   `json:"is_staff"`
}

func NewUser(a *model.Account) User {
	if a == nil {
		return User{}
	}
	return User{
		ID:       a.ID,
		Email:    a.Email,
		IsActive: a.IsActive,
		IsStaff:  a.IsAdmin,
	}
}

// Registration is a validated sign-up request.
type Registration struct {
	Email    string
	Password string
}

type registrationPayload struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

// DecodeRegistration accepts either {email, password1, password2} or the
// single-field form {email, password}.
func DecodeRegistration(r io.Reader) (Registration, error) {
	var p registrationPayload
	if err := decode(r, &p); err != nil {
		return Registration{}, err
	}
	p.Email = NormalizeEmail(p.Email)
	if p.Password1 == "" && p.Password2 == "" && p.Password != "" {
		p.Password1, p.Password2 = p.Password, p.Password
	}

	fe := fieldErrors{}
	fe.checkStruct("", &p)
	fe.check("password1", p.Password1, "required,min=8")
	fe.check("password2", p.Password2, "required")
	if _, bad := fe["password1"]; !bad && p.Password1 != p.Password2 {
		fe.add("password2", msgPasswordMatch)
	}
	if err := fe.err(); err != nil {
		return Registration{}, err
	}
	return Registration{Email: p.Email, Password: p.Password1}, nil
}

// Credentials is a validated login request.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func DecodeCredentials(r io.Reader) (Credentials, error) {
	var c Credentials
	if err := decode(r, &c); err != nil {
		return Credentials{}, err
	}
	c.Email = NormalizeEmail(c.Email)
	fe := fieldErrors{}
	fe.checkStruct("", &c)
	if err := fe.err(); err != nil {
		return Credentials{}, err
	}
	return c, nil
}

// PasswordChange is a validated change-password request.
type PasswordChange struct {
	OldPassword string
	NewPassword string
}

type passwordChangePayload struct {
	OldPassword  string `json:"old_password"`
	NewPassword1 string `json:"new_password1"`
	NewPassword2 string `json:"new_password2"`
}

func DecodePasswordChange(r io.Reader) (PasswordChange, error) {
	var p passwordChangePayload
	if err := decode(r, &p); err != nil {
		return PasswordChange{}, err
	}
	fe := fieldErrors{}
	fe.check("old_password", p.OldPassword, "required")
	fe.check("new_password1", p.NewPassword1, "required,min=8")
	fe.check("new_password2", p.NewPassword2, "required")
	if _, bad := fe["new_password1"]; !bad && p.NewPassword1 != p.NewPassword2 {
		fe.add("new_password2", msgPasswordMatch)
	}
	if err := fe.err(); err != nil {
		return PasswordChange{}, err
	}
	return PasswordChange{OldPassword: p.OldPassword, NewPassword: p.NewPassword1}, nil
}

// AccountCreate is an admin request to create an account. An empty
// Password leaves the account without a usable password.
type AccountCreate struct {
	Email    string
	Password string
	IsActive bool
	IsAdmin  bool
}

type accountPayload struct {
	Email    optional.Value[string] `json:"email"`
	Password optional.Value[string] `json:"password"`
	IsActive optional.Value[bool]   `json:"is_active"`
	IsStaff  optional.Value[bool]   `json:"is_staff"`
}

func (p *accountPayload) validate(requireEmail bool) (model.AccountUpdate, error) {
	fe := fieldErrors{}
	var out model.AccountUpdate

	switch {
	case p.Email.Null:
		fe.add("email", msgNull)
	case p.Email.Set:
		email := NormalizeEmail(p.Email.Value)
		fe.check("email", email, "required,email,max=255")
		out.Email = optional.Of(email)
	case requireEmail:
		fe.add("email", msgRequired)
	}
	if p.Password.Present() {
		fe.check("password", p.Password.Value, "min=8")
	}
	if p.IsActive.Null {
		fe.add("is_active", msgNull)
	} else if p.IsActive.Set {
		out.IsActive = optional.Of(p.IsActive.Value)
	}
	if p.IsStaff.Null {
		fe.add("is_staff", msgNull)
	} else if p.IsStaff.Set {
		out.IsAdmin = optional.Of(p.IsStaff.Value)
	}
	return out, fe.err()
}

func DecodeAccountCreate(r io.Reader) (AccountCreate, error) {
	var p accountPayload
	if err := decode(r, &p); err != nil {
		return AccountCreate{}, err
	}
	u, err := p.validate(true)
	if err != nil {
		return AccountCreate{}, err
	}
	return AccountCreate{
		Email:    u.Email.Value,
		Password: p.Password.Value,
		IsActive: u.IsActive.Or(true),
		IsAdmin:  u.IsAdmin.Or(false),
	}, nil
}

// DecodeAccountUpdate reads a PUT (partial=false) or PATCH body for the
// account admin endpoints. Passwords are changed through the password
// change endpoint only, so a password key here is ignored.
func DecodeAccountUpdate(r io.Reader, partial bool) (model.AccountUpdate, error) {
	var p accountPayload
	if err := decode(r, &p); err != nil {
		return model.AccountUpdate{}, err
	}
	p.Password = optional.Value[string]{}
	return p.validate(!partial)
}
