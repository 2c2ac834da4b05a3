// Package users owns customer and staff accounts: signup, password login and
// the staff flag.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/codr1/Escapade/internal/api/apiutil"
	"github.com/codr1/Escapade/internal/db"
)

const (
	maxUsernameLength = 150
	maxEmailLength    = 254
	minPasswordLength = 8
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotFound           = errors.New("user not found")
)

type SignUpRequest struct {
	Username  string
	Email     string
	Password1 string
	Password2 string
}

type Service struct {
	db       *db.DB
	hashCost int

	dummyOnce sync.Once
	dummyHash string
}

// NewService builds a Service. hashCost 0 uses bcrypt.DefaultCost.
func NewService(database *db.DB, hashCost int) *Service {
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &Service{db: database, hashCost: hashCost}
}

// SignUp validates req and stores a new non-staff account.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (db.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := validateSignUp(req); err != nil {
		return db.User{}, err
	}

	if _, err := s.db.Queries.GetUserByUsername(ctx, req.Username); err == nil {
		return db.User{}, apiutil.FieldError{Field: "username", Reason: "is already taken"}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return db.User{}, fmt.Errorf("check username: %w", err)
	}

	hash, err := HashPassword(req.Password1, s.hashCost)
	if err != nil {
		return db.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.db.Queries.CreateUser(ctx, db.CreateUserParams{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return db.User{}, fmt.Errorf("create user: %w", err)
	}

	log.Ctx(ctx).Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User signed up")
	return user, nil
}

// Authenticate checks a username and password. Unknown users and wrong
// passwords both return ErrInvalidCredentials after a bcrypt comparison.
func (s *Service) Authenticate(ctx context.Context, username, password string) (db.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return db.User{}, ErrInvalidCredentials
	}

	user, err := s.db.Queries.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			VerifyPassword(s.comparisonHash(), password)
			return db.User{}, ErrInvalidCredentials
		}
		return db.User{}, fmt.Errorf("get user: %w", err)
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return db.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// comparisonHash keeps the unknown-user path as slow as a real check.
func (s *Service) comparisonHash() string {
	s.dummyOnce.Do(func() {
		hash, err := HashPassword("escapade-unknown-user", s.hashCost)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func (s *Service) Get(ctx context.Context, id int64) (db.User, error) {
	user, err := s.db.Queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.User{}, ErrNotFound
		}
		return db.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// SetStaff grants or revokes staff access for username.
func (s *Service) SetStaff(ctx context.Context, username string, isStaff bool) error {
	updated, err := s.db.Queries.SetUserStaff(ctx, strings.TrimSpace(username), isStaff)
	if err != nil {
		return fmt.Errorf("set staff: %w", err)
	}
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

func validateSignUp(req SignUpRequest) error {
	switch {
	case req.Username == "":
		return apiutil.FieldError{Field: "username", Reason: "is required"}
	case utf8.RuneCountInString(req.Username) > maxUsernameLength:
		return apiutil.FieldError{Field: "username", Reason: fmt.Sprintf("must be at most %d characters", maxUsernameLength)}
	case !validUsername(req.Username):
		return apiutil.FieldError{Field: "username", Reason: "may contain only letters, digits and @/./+/-/_"}
	}

	if req.Email == "" {
		return apiutil.FieldError{Field: "email", Reason: "is required"}
	}
	if len(req.Email) > maxEmailLength {
		return apiutil.FieldError{Field: "email", Reason: fmt.Sprintf("must be at most %d characters", maxEmailLength)}
	}
	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		return apiutil.FieldError{Field: "email", Reason: "must be a valid email address"}
	}

	switch {
	case req.Password1 == "":
		return apiutil.FieldError{Field: "password1", Reason: "is required"}
	case utf8.RuneCountInString(req.Password1) < minPasswordLength:
		return apiutil.FieldError{Field: "password1", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	case isAllDigits(req.Password1):
		return apiutil.FieldError{Field: "password1", Reason: "must not be entirely numeric"}
	case strings.EqualFold(req.Password1, req.Username):
		return apiutil.FieldError{Field: "password1", Reason: "must not match the username"}
	case req.Password1 != req.Password2:
		return apiutil.FieldError{Field: "password2", Reason: "does not match the password"}
	}
	return nil
}

func validUsername(username string) bool {
	for _, r := range username {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case '@', '.', '+', '-', '_':
			continue
		}
		return false
	}
	return true
}

func isAllDigits(value string) bool {
	for _, r := range value {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
