package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
)

// DefaultSignificantDelta is the minimum absolute score change worth
// propagating on re-assessment. Smaller movements are treated as scoring
// noise and dropped.
const DefaultSignificantDelta int32 = 5

// RiskGate validates risk scores and forwards them to the ledger. It owns the
// significant-change re-assessment policy and the terminal-payment safety net
// for a lagging scheduler.
type RiskGate interface {
	// ApplyScore forwards the assessor's score to the ledger and returns
	// the resulting status. Re-assessments within the significance delta
	// and assessments of terminal payments are no-ops returning the
	// current status.
	ApplyScore(ctx context.Context, paymentID string, score int32, assessor string) (domain.PaymentStatus, error)
}

type riskGate struct {
	ledger LedgerService
	authz  AuthzService
	delta  int32
}

// NewRiskGate creates the gate. A delta of 0 propagates every re-assessment;
// pass DefaultSignificantDelta for the standard noise filter.
func NewRiskGate(ledger LedgerService, authz AuthzService, delta int32) RiskGate {
	return &riskGate{ledger: ledger, authz: authz, delta: delta}
}

func (g *riskGate) ApplyScore(ctx context.Context, paymentID string, score int32, assessor string) (domain.PaymentStatus, error) {
	// Authorization first: the no-op paths below must not leak payment
	// status to an unauthorized assessor.
	if err := g.requireAgent(ctx, assessor); err != nil {
		return "", err
	}
	if !domain.ValidScore(score) {
		return "", fmt.Errorf("score %d: %w", score, domain.ErrInvalidScore)
	}

	view, err := g.ledger.GetPayment(ctx, paymentID)
	if err != nil {
		return "", err
	}

	// Idempotent safety net: a scheduler replaying a stale assessment of a
	// settled payment is not an error.
	if view.Status.Terminal() {
		return view.Status, nil
	}

	// Re-assessments only propagate on a significant change.
	if view.RiskScore != nil && abs(*view.RiskScore-score) <= g.delta {
		return view.Status, nil
	}

	status, err := g.ledger.ApplyRiskScore(ctx, paymentID, score, assessor)
	if errors.Is(err, domain.ErrAlreadyTerminal) {
		// The payment settled between the read and the write.
		current, getErr := g.ledger.GetPayment(ctx, paymentID)
		if getErr != nil {
			return "", getErr
		}
		return current.Status, nil
	}
	if err != nil {
		return "", err
	}

	return status, nil
}

func (g *riskGate) requireAgent(ctx context.Context, identity string) error {
	authorized, err := g.authz.IsAuthorized(ctx, identity)
	if err != nil {
		return fmt.Errorf("failed to check agent authorization: %w", err)
	}
	if !authorized {
		return fmt.Errorf("identity %s is not an authorized agent: %w", identity, domain.ErrUnauthorized)
	}
	return nil
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
