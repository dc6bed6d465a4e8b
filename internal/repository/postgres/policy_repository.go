package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
	"github.com/mja2001/SolCipher-Cronos/internal/repository"
)

type policyRepository struct {
	db *pgxpool.Pool
}

// NewPolicyRepository creates a policy store backed by the given pool.
func NewPolicyRepository(db *pgxpool.Pool) repository.PolicyRepository {
	return &policyRepository{db: db}
}

func (r *policyRepository) Upsert(ctx context.Context, p *domain.PrivacyPolicy) error {
	query := `
        INSERT INTO privacy_policies (
            payer, proof_required, risk_check_required, min_risk_threshold,
            metadata_encryption_required, auto_complete_on_proof, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, NOW())
        ON CONFLICT (payer) DO UPDATE SET
            proof_required = EXCLUDED.proof_required,
            risk_check_required = EXCLUDED.risk_check_required,
            min_risk_threshold = EXCLUDED.min_risk_threshold,
            metadata_encryption_required = EXCLUDED.metadata_encryption_required,
            auto_complete_on_proof = EXCLUDED.auto_complete_on_proof,
            updated_at = NOW()
    `

	_, err := r.db.Exec(ctx, query,
		p.Payer, p.ProofRequired, p.RiskCheckRequired, p.MinRiskThreshold,
		p.MetadataEncryptionRequired, p.AutoCompleteOnProof,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert policy: %w", err)
	}

	return nil
}

func (r *policyRepository) Get(ctx context.Context, payer string) (*domain.PrivacyPolicy, error) {
	query := `
        SELECT payer, proof_required, risk_check_required, min_risk_threshold,
               metadata_encryption_required, auto_complete_on_proof, updated_at
        FROM privacy_policies
        WHERE payer = $1
    `

	var p domain.PrivacyPolicy
	err := r.db.QueryRow(ctx, query, payer).Scan(
		&p.Payer, &p.ProofRequired, &p.RiskCheckRequired, &p.MinRiskThreshold,
		&p.MetadataEncryptionRequired, &p.AutoCompleteOnProof, &p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}

	return &p, nil
}
