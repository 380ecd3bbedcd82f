package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/adboard/adboard/internal/shared"
)

// Service wraps registration and credential checks.
type Service struct {
	repo Repository
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewService constructs a new Service hashing with bcrypt.DefaultCost.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

// Register stores a new user with a salted bcrypt hash of password.
func (s *Service) Register(ctx context.Context, email, password string) (int64, error) {
	if strings.TrimSpace(email) == "" {
		return 0, fmt.Errorf("%w: email is required", shared.ErrValidation)
	}
	if password == "" {
		return 0, fmt.Errorf("%w: password is required", shared.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return 0, fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.CreateUser(ctx, email, string(hash))
}

// Verify checks email/password and returns the matching user.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Verify(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		// Spend the same bcrypt work as a real check.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("adboard-dummy-password"), s.cost)
	})
	return s.dummyHash
}
