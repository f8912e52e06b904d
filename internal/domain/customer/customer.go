package customer

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested customer does not exist.
	ErrNotFound = errors.New("customer not found")
	// ErrEmailTaken is returned when registering an email already in use.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned when login email or password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const minPasswordLen = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// InvalidError describes registration or profile input that fails validation.
type InvalidError struct {
	Field  string
	Reason string
}

func (e *InvalidError) Error() string {
	return e.Field + ": " + e.Reason
}

// Customer is a registered shop customer.
type Customer struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}

// Registration is the validated input for creating a customer.
type Registration struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Validate checks required fields, email format and password length.
func (r *Registration) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	switch {
	case r.Name == "":
		return &InvalidError{Field: "name", Reason: "required"}
	case r.Email == "":
		return &InvalidError{Field: "email", Reason: "required"}
	case r.Phone == "":
		return &InvalidError{Field: "phone", Reason: "required"}
	case r.Password == "":
		return &InvalidError{Field: "password", Reason: "required"}
	case !emailPattern.MatchString(r.Email):
		return &InvalidError{Field: "email", Reason: "invalid format"}
	case len(r.Password) < minPasswordLen:
		return &InvalidError{Field: "password", Reason: "must be at least 6 characters"}
	}
	return nil
}

// Repository defines persistence operations for customers. Emails are
// stored as entered and compared case-insensitively.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Customer, error)
	GetByEmail(ctx context.Context, email string) (*Customer, error)
	// Create stores c and sets its ID and CreatedAt. It returns
	// ErrEmailTaken on a uniqueness conflict.
	Create(ctx context.Context, c *Customer) error
	UpdateProfile(ctx context.Context, id int64, name, phone string) error
}
