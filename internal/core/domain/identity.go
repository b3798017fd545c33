package domain

import (
	"strings"
	"time"
)

// Credentials are the login inputs. Never persisted.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegistrationData is the registration input. Never persisted.
type RegistrationData struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate performs the checks the form layer runs before submission.
func (r RegistrationData) Validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return ErrValidation.WithDetails("name is required")
	case strings.TrimSpace(r.Email) == "":
		return ErrValidation.WithDetails("email is required")
	case r.Password == "":
		return ErrValidation.WithDetails("password is required")
	case r.Password != r.ConfirmPassword:
		return ErrValidation.WithDetails("passwords do not match")
	}
	return nil
}

// Validate checks that both login fields are present.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return ErrValidation.WithDetails("email is required")
	}
	if c.Password == "" {
		return ErrValidation.WithDetails("password is required")
	}
	return nil
}

// Identity is the authenticated user. Sourced only from the backend and
// replaced wholesale on every login or refresh response.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthResult is the data payload of login, register and refresh responses.
type AuthResult struct {
	User   Identity  `json:"user"`
	Tokens TokenPair `json:"tokens"`
}
