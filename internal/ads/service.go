package ads

import (
	"context"
	"fmt"
	"strings"

	"github.com/adboard/adboard/internal/authz"
	"github.com/adboard/adboard/internal/shared"
)

// RepositoryPort defines data access methods for ads.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	CreateAd(ctx context.Context, ownerID int64, title, description string) (int64, error)
	GetAd(ctx context.Context, id int64) (*Ad, error)
}

// Service handles ad business rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create stores a new ad owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID int64, title, description string) (int64, error) {
	if err := requireText("title", title); err != nil {
		return 0, err
	}
	if err := requireText("description", description); err != nil {
		return 0, err
	}
	return s.repo.CreateAd(ctx, ownerID, title, description)
}

// Get returns the ad with its owner email. Reads are public.
func (s *Service) Get(ctx context.Context, id int64) (*Ad, error) {
	return s.repo.GetAd(ctx, id)
}

// Update applies patch when caller owns the ad. The ownership check and
// the write share one transaction holding the row lock.
func (s *Service) Update(ctx context.Context, id int64, caller shared.Identity, patch Patch) error {
	if patch.Title != nil {
		if err := requireText("title", *patch.Title); err != nil {
			return err
		}
	}
	if patch.Description != nil {
		if err := requireText("description", *patch.Description); err != nil {
			return err
		}
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ownerID, err := tx.LockOwner(ctx, id)
		if err != nil {
			return err
		}
		if err := authz.Authorize(caller, ownerID); err != nil {
			return err
		}
		if patch.Empty() {
			return nil
		}
		return tx.UpdateAd(ctx, id, patch)
	})
}

// Delete permanently removes the ad when caller owns it.
func (s *Service) Delete(ctx context.Context, id int64, caller shared.Identity) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ownerID, err := tx.LockOwner(ctx, id)
		if err != nil {
			return err
		}
		if err := authz.Authorize(caller, ownerID); err != nil {
			return err
		}
		return tx.DeleteAd(ctx, id)
	})
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", shared.ErrValidation, field)
	}
	return nil
}
