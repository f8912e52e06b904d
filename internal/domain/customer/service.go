package customer

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs session tokens for authenticated customers.
type TokenIssuer interface {
	Issue(customerID int64, email string) (string, time.Time, error)
}

// Session is the result of a successful login.
type Session struct {
	Customer  *Customer
	Token     string
	ExpiresAt time.Time
}

// Service implements registration, login and profile management.
type Service struct {
	repo     Repository
	tokens   TokenIssuer
	hashCost int
}

// NewService creates a customer Service.
func NewService(repo Repository, tokens TokenIssuer) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
	}
}

// Register validates reg, hashes the password and stores the customer.
func (s *Service) Register(ctx context.Context, reg Registration) (*Customer, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(ctx, reg.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.hashCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	c := &Customer{
		Name:         reg.Name,
		Email:        reg.Email,
		Phone:        reg.Phone,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, errors.Wrap(err, "create customer")
	}
	return c, nil
}

// Login checks the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, &InvalidError{Field: "credentials", Reason: "email and password are required"}
	}

	c, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "find customer")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(c.ID, c.Email)
	if err != nil {
		return nil, errors.Wrap(err, "issue token")
	}
	return &Session{Customer: c, Token: token, ExpiresAt: exp}, nil
}

// Get returns a customer by id.
func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile changes the name and phone of an existing customer.
func (s *Service) UpdateProfile(ctx context.Context, id int64, name, phone string) (*Customer, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return nil, &InvalidError{Field: "profile", Reason: "name and phone are required"}
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProfile(ctx, id, name, phone); err != nil {
		return nil, errors.Wrapf(err, "update customer %d", id)
	}
	c.Name, c.Phone = name, phone
	return c, nil
}
