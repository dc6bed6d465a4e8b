package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
	"github.com/mja2001/SolCipher-Cronos/internal/repository"
)

// PolicyService stores per-payer privacy policies. Mutation is bound to the
// authenticated caller identity; a payer can only ever write their own policy.
type PolicyService interface {
	SetPolicy(ctx context.Context, caller string, params domain.SetPolicyParams) (*domain.PrivacyPolicy, error)

	// GetPolicy returns the payer's policy, or the system defaults when the
	// payer has never set one.
	GetPolicy(ctx context.Context, payer string) (*domain.PrivacyPolicy, error)
}

type policyService struct {
	repo repository.PolicyRepository
}

// NewPolicyService creates a new policy store.
func NewPolicyService(repo repository.PolicyRepository) PolicyService {
	return &policyService{repo: repo}
}

func (s *policyService) SetPolicy(ctx context.Context, caller string, params domain.SetPolicyParams) (*domain.PrivacyPolicy, error) {
	if caller == "" {
		return nil, fmt.Errorf("caller identity is required: %w", domain.ErrUnauthorized)
	}

	if params.MinRiskThreshold < domain.MinRiskScore || params.MinRiskThreshold > domain.MaxRiskScore {
		return nil, fmt.Errorf("risk threshold must be between 0 and 100: %w", domain.ErrInvalidInput)
	}

	policy := &domain.PrivacyPolicy{
		Payer:                      caller,
		ProofRequired:              params.ProofRequired,
		RiskCheckRequired:          params.RiskCheckRequired,
		MinRiskThreshold:           params.MinRiskThreshold,
		MetadataEncryptionRequired: params.MetadataEncryptionRequired,
		AutoCompleteOnProof:        params.AutoCompleteOnProof,
		UpdatedAt:                  time.Now().UTC(),
	}

	if err := s.repo.Upsert(ctx, policy); err != nil {
		return nil, fmt.Errorf("failed to store policy: %w", err)
	}

	return policy, nil
}

func (s *policyService) GetPolicy(ctx context.Context, payer string) (*domain.PrivacyPolicy, error) {
	policy, err := s.repo.Get(ctx, payer)
	if err != nil {
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}
	if policy == nil {
		return domain.DefaultPolicy(payer), nil
	}

	return policy, nil
}
