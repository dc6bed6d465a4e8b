// Package orchestrator runs the off-chain settlement agent: independent
// polling workers that scan the ledger and drive transitions through its
// public operations. Each worker has its own interval and isolated backoff;
// a failing cycle never stops the loop and never touches another worker.
package orchestrator

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
	"github.com/mja2001/SolCipher-Cronos/internal/riskclient"
	"github.com/mja2001/SolCipher-Cronos/internal/service"
)

// Scorer is the slice of the risk-scoring client the orchestrator needs.
type Scorer interface {
	Score(ctx context.Context, req riskclient.ScoreRequest) (*riskclient.ScoreResponse, error)
}

// Options configures the worker intervals and scan sizes.
type Options struct {
	AgentIdentity  string
	RiskInterval   time.Duration
	ProofInterval  time.Duration
	ExpiryInterval time.Duration
	PaymentTTL     time.Duration
	BatchSize      int
}

// Orchestrator drives payments through assessment, attestation and expiry.
type Orchestrator struct {
	ledger   service.LedgerService
	gate     service.RiskGate
	proofs   service.ProofService
	policies service.PolicyService
	scorer   Scorer
	opts     Options
}

// New wires an orchestrator. A nil scorer disables external scoring and every
// payment gets the conservative fallback. Proof attachment is skipped when
// proofs is nil (no verification capability configured).
func New(
	ledger service.LedgerService,
	gate service.RiskGate,
	proofs service.ProofService,
	policies service.PolicyService,
	scorer Scorer,
	opts Options,
) *Orchestrator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	return &Orchestrator{
		ledger:   ledger,
		gate:     gate,
		proofs:   proofs,
		policies: policies,
		scorer:   scorer,
		opts:     opts,
	}
}

// Run starts the workers and blocks until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) {
	go o.runLoop(ctx, "risk", o.opts.RiskInterval, o.RiskCycle)
	if o.proofs != nil {
		go o.runLoop(ctx, "proof", o.opts.ProofInterval, o.ProofCycle)
	}
	if o.opts.PaymentTTL > 0 {
		go o.runLoop(ctx, "expiry", o.opts.ExpiryInterval, o.ExpiryCycle)
	}

	<-ctx.Done()
}

// runLoop executes cycle on a fixed interval with doubling backoff on error,
// capped at 8x the base interval and reset on the first success.
func (o *Orchestrator) runLoop(ctx context.Context, name string, interval time.Duration, cycle func(context.Context) error) {
	wait := interval
	maxWait := 8 * interval

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		if err := cycle(ctx); err != nil {
			log.Printf("%s worker: cycle failed: %v", name, err)
			wait *= 2
			if wait > maxWait {
				wait = maxWait
			}
			continue
		}
		wait = interval
	}
}

// RiskCycle scores every Pending payment. Payments whose policy waives the
// risk check get a zero score so they verify without consulting the external
// service; scoring failures fall back to the medium-risk default rather than
// holding the payment up.
func (o *Orchestrator) RiskCycle(ctx context.Context) error {
	pending, err := o.ledger.ListByStatus(ctx, domain.StatusPending, o.opts.BatchSize)
	if err != nil {
		return err
	}

	for _, p := range pending {
		policy, err := o.policies.GetPolicy(ctx, p.Payer)
		if err != nil {
			log.Printf("risk worker: policy lookup failed for payment %s: %v", p.ID, err)
			continue
		}

		score := int32(0)
		if policy.RiskCheckRequired {
			score = o.scorePayment(ctx, p)
		}

		if _, err := o.gate.ApplyScore(ctx, p.ID, score, o.opts.AgentIdentity); err != nil {
			log.Printf("risk worker: failed to apply score for payment %s: %v", p.ID, err)
		}
	}

	return nil
}

func (o *Orchestrator) scorePayment(ctx context.Context, p *domain.PaymentView) int32 {
	if o.scorer == nil {
		return riskclient.FallbackScore
	}

	resp, err := o.scorer.Score(ctx, riskclient.ScoreRequest{
		Sender:          p.Payer,
		RecipientRef:    p.RecipientRef,
		Token:           p.Token,
		EncryptedAmount: p.EncryptedAmount,
	})
	if err != nil {
		log.Printf("risk worker: scoring failed for payment %s, using fallback: %v", p.ID, err)
		return riskclient.FallbackScore
	}

	return resp.Score
}

// ProofCycle attaches latched attestations to their Verified payments.
// Payments without a verified attestation are left for the next sweep.
func (o *Orchestrator) ProofCycle(ctx context.Context) error {
	verified, err := o.ledger.ListByStatus(ctx, domain.StatusVerified, o.opts.BatchSize)
	if err != nil {
		return err
	}

	for _, p := range verified {
		if p.ProofVerified {
			continue
		}

		attestation, err := o.proofs.GetByPayment(ctx, p.ID)
		if err != nil {
			log.Printf("proof worker: attestation lookup failed for payment %s: %v", p.ID, err)
			continue
		}
		if attestation == nil || !attestation.Verified {
			continue
		}

		err = o.ledger.VerifyProof(ctx, p.ID, attestation.Fingerprint, o.opts.AgentIdentity)
		if err != nil && !errors.Is(err, domain.ErrInvalidState) {
			log.Printf("proof worker: failed to attach proof for payment %s: %v", p.ID, err)
		}
	}

	return nil
}

// ExpiryCycle refunds Pending payments older than the ledger TTL.
func (o *Orchestrator) ExpiryCycle(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-o.opts.PaymentTTL)
	expired, err := o.ledger.ListPendingBefore(ctx, cutoff, o.opts.BatchSize)
	if err != nil {
		return err
	}

	for _, p := range expired {
		if err := o.ledger.ExpirePayment(ctx, p.ID, o.opts.AgentIdentity); err != nil {
			log.Printf("expiry worker: failed to expire payment %s: %v", p.ID, err)
		}
	}

	return nil
}
