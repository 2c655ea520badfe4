package user

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer creates a signed bearer token for an authenticated user.
// The concrete implementation lives in internal/auth.
type TokenIssuer interface {
	Issue(userID string, role Role) (string, error)
}

// RegisterRequest holds the input for creating an account.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	CPF      string
}

// UpdateRequest holds a partial profile update. Nil fields are left unchanged.
type UpdateRequest struct {
	Name     *string
	Email    *string
	Password *string
}

// Service encapsulates account management business logic.
type Service struct {
	users  Repository
	tokens TokenIssuer
}

// NewService creates a user Service.
func NewService(users Repository, tokens TokenIssuer) *Service {
	return &Service{users: users, tokens: tokens}
}

// Register validates the request, hashes the password, and persists a new
// CUSTOMER account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.CPF = strings.TrimSpace(req.CPF)

	if req.Name == "" || req.Email == "" || req.Password == "" || req.CPF == "" {
		return nil, errors.New("name, email, password and cpf are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		CPF:          req.CPF,
		PasswordHash: string(hash),
		Role:         RoleCustomer,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return u, nil
}

// Login verifies credentials and issues a bearer token. Unknown emails and
// wrong passwords produce the same ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, errors.Wrap(err, "get user by email")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return "", nil, errors.Wrap(err, "issue token")
	}
	return token, u, nil
}

// GetByID loads a single account.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile applies a partial update to the given account.
func (s *Service) UpdateProfile(ctx context.Context, id string, req UpdateRequest) (*User, error) {
	if req.Name == nil && req.Email == nil && req.Password == nil {
		return nil, ErrEmptyUpdate
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}

	if req.Name != nil {
		if v := strings.TrimSpace(*req.Name); v != "" {
			u.Name = v
		}
	}
	if req.Email != nil {
		if v := strings.TrimSpace(*req.Email); v != "" {
			u.Email = v
		}
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.Wrap(err, "hash password")
		}
		u.PasswordHash = string(hash)
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, errors.Wrap(err, "update user")
	}
	return u, nil
}

// Delete removes an account. The requesting admin cannot delete themselves.
func (s *Service) Delete(ctx context.Context, requesterID, targetID string) error {
	if requesterID == targetID {
		return ErrSelfDelete
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return errors.Wrap(err, "get user")
	}
	if err := s.users.Delete(ctx, targetID); err != nil {
		return errors.Wrap(err, "delete user")
	}
	return nil
}
