package service

import (
	"context"
	"fmt"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
	"github.com/mja2001/SolCipher-Cronos/internal/repository"
	"github.com/mja2001/SolCipher-Cronos/internal/validator"
)

// AuthzService is the process-wide allow-list of identities permitted to act
// as risk-assessment or proof-verification agents.
type AuthzService interface {
	// SetAuthorization grants or revokes agent status. Administrator only.
	SetAuthorization(ctx context.Context, caller, identity string, authorized bool) error

	// IsAuthorized reports whether identity may act as an agent. The
	// administrative identity is always authorized.
	IsAuthorized(ctx context.Context, identity string) (bool, error)
}

type authzService struct {
	repo  repository.AgentRepository
	admin string
}

// NewAuthzService creates the authorization registry. The admin identity is
// seeded as authorized from the start.
func NewAuthzService(repo repository.AgentRepository, admin string) AuthzService {
	return &authzService{repo: repo, admin: admin}
}

func (s *authzService) SetAuthorization(ctx context.Context, caller, identity string, authorized bool) error {
	if caller != s.admin {
		return fmt.Errorf("only the administrator may change agent authorization: %w", domain.ErrUnauthorized)
	}

	if err := validator.ValidateIdentity(identity); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
	}

	if err := s.repo.Set(ctx, identity, authorized); err != nil {
		return fmt.Errorf("failed to set authorization: %w", err)
	}

	return nil
}

func (s *authzService) IsAuthorized(ctx context.Context, identity string) (bool, error) {
	if identity == s.admin {
		return true, nil
	}

	return s.repo.IsAuthorized(ctx, identity)
}
