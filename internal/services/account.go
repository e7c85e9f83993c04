package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/HammerMeetNail/odinbook/internal/models"
	"github.com/HammerMeetNail/odinbook/internal/store"
)

const (
	bcryptCost        = 12
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt limit
	maxNameLength     = 100
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type RegisterParams struct {
	FirstName            string
	LastName             string
	Email                string
	Password             string
	PasswordConfirmation string
}

type AccountService struct {
	accounts AccountStore
	cost     int
}

func NewAccountService(accounts AccountStore) *AccountService {
	return &AccountService{accounts: accounts, cost: bcryptCost}
}

func (s *AccountService) Register(ctx context.Context, params RegisterParams) (*models.Account, error) {
	params.FirstName = strings.TrimSpace(params.FirstName)
	params.LastName = strings.TrimSpace(params.LastName)
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))

	if verr := validateRegistration(params); verr != nil {
		return nil, verr
	}

	hash, err := s.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.Create(ctx, models.CreateAccountParams{
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Email:        params.Email,
		PasswordHash: hash,
	})
	if errors.Is(err, store.ErrDuplicateEmail) {
		return nil, NewValidationError("email", "E-mail already in use.")
	}
	if err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}
	return account, nil
}

func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("getting account by email: %w", err)
	}
	if !s.VerifyPassword(account.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

func (s *AccountService) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting account: %w", err)
	}
	return account, nil
}

func (s *AccountService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

func (s *AccountService) VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func validateRegistration(params RegisterParams) *ValidationError {
	verr := &ValidationError{}
	add := func(field, message string) {
		verr.Errors = append(verr.Errors, FieldError{Field: field, Message: message})
	}

	if params.FirstName == "" {
		add("first_name", "First name must be specified.")
	} else if len(params.FirstName) > maxNameLength {
		add("first_name", "First name is too long.")
	}
	if params.LastName == "" {
		add("last_name", "Last name must be specified.")
	} else if len(params.LastName) > maxNameLength {
		add("last_name", "Last name is too long.")
	}
	if _, err := mail.ParseAddress(params.Email); err != nil || params.Email == "" {
		add("email", "E-mail is not a valid e-mail address.")
	}
	if len(params.Password) < minPasswordLength {
		add("password", "Password must be at least 8 characters.")
	} else if len(params.Password) > maxPasswordLength {
		add("password", "Password must be at most 72 characters.")
	}
	if params.Password != params.PasswordConfirmation {
		add("password_confirmation", "Password confirmation does not match password.")
	}

	if len(verr.Errors) == 0 {
		return nil
	}
	return verr
}
