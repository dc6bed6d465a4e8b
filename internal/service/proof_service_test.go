package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
	"github.com/mja2001/SolCipher-Cronos/internal/repository"
	"github.com/mja2001/SolCipher-Cronos/internal/repository/memory"
)

// stubVerifier returns a configurable verdict so a single service instance
// can exercise both failed and successful verification of the same proof.
type stubVerifier struct {
	valid bool
	err   error
}

func (s *stubVerifier) Verify(proof, publicInput []byte) (bool, error) {
	return s.valid, s.err
}

// testProofPayment is the payment every attestation in these tests binds to.
var testProofPayment = fingerprintOf([]byte("settling-payment"))

func newProofEnv(t *testing.T) (ProofService, *stubVerifier, repository.ProofRepository) {
	t.Helper()

	authz := NewAuthzService(memory.NewAgentRepository(), testAdmin)
	if err := authz.SetAuthorization(context.Background(), testAdmin, testAgent, true); err != nil {
		t.Fatalf("failed to authorize test agent: %v", err)
	}

	now := time.Now().UTC()
	paymentRepo := memory.NewPaymentRepository()
	err := paymentRepo.Create(context.Background(), &domain.Payment{
		ID:              testProofPayment,
		Payer:           testPayer,
		RecipientRef:    "recipient-hash-1",
		Token:           "USDC",
		Amount:          "100.50",
		EncryptedAmount: []byte("opaque-ciphertext"),
		Status:          domain.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("failed to seed payment: %v", err)
	}

	repo := memory.NewProofRepository()
	stub := &stubVerifier{valid: true}
	return NewProofService(repo, paymentRepo, authz, stub), stub, repo
}

func fingerprintOf(proof []byte) string {
	digest := sha256.Sum256(proof)
	return hex.EncodeToString(digest[:])
}

func TestProofSubmit(t *testing.T) {
	tests := []struct {
		name        string
		fingerprint string
		wantErr     bool
	}{
		{"Valid", fingerprintOf([]byte("proof")), false},
		{"Invalid - too short", "abc123", true},
		{"Invalid - not hex", "zz" + fingerprintOf([]byte("proof"))[2:], true},
		{"Invalid - all zeros", "0000000000000000000000000000000000000000000000000000000000000000", true},
		{"Invalid - empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newProofEnv(t)

			err := svc.Submit(context.Background(), tt.fingerprint, testProofPayment, []byte("input"), testPayer)
			if (err != nil) != tt.wantErr {
				t.Errorf("Submit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("Submit() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestProofSubmitPaymentBinding(t *testing.T) {
	svc, _, _ := newProofEnv(t)
	ctx := context.Background()
	fp := fingerprintOf([]byte("proof"))

	if err := svc.Submit(ctx, fp, "not-a-payment-id", []byte("input"), testPayer); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Submit() with malformed payment id error = %v, want ErrInvalidInput", err)
	}

	// A well-formed identifier is not enough; the payment must exist.
	unknown := fingerprintOf([]byte("never-created"))
	if err := svc.Submit(ctx, fp, unknown, []byte("input"), testPayer); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Submit() for unknown payment error = %v, want ErrNotFound", err)
	}
}

func TestProofSubmitIsWriteOnce(t *testing.T) {
	svc, _, _ := newProofEnv(t)
	ctx := context.Background()
	fp := fingerprintOf([]byte("proof"))

	if err := svc.Submit(ctx, fp, testProofPayment, []byte("first"), testPayer); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	err := svc.Submit(ctx, fp, testProofPayment, []byte("second"), testPayer)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate Submit() error = %v, want ErrConflict", err)
	}

	// The first submission's public input survives.
	attestation, err := svc.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(attestation.PublicInput) != "first" {
		t.Errorf("public input = %q, want the original submission", attestation.PublicInput)
	}
}

func TestProofVerify(t *testing.T) {
	proof := []byte("groth16-proof")
	fp := fingerprintOf(proof)

	t.Run("Valid proof latches", func(t *testing.T) {
		svc, _, _ := newProofEnv(t)
		ctx := context.Background()
		if err := svc.Submit(ctx, fp, testProofPayment, []byte("input"), testPayer); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}

		valid, err := svc.Verify(ctx, fp, testAgent, proof)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if !valid {
			t.Fatal("Verify() = false, want true")
		}

		attestation, err := svc.Get(ctx, fp)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !attestation.Verified {
			t.Error("attestation not latched")
		}
		if attestation.Verifier == nil || *attestation.Verifier != testAgent {
			t.Errorf("verifier = %v, want %s", attestation.Verifier, testAgent)
		}
	})

	t.Run("Mismatched proof bytes are rejected", func(t *testing.T) {
		svc, _, _ := newProofEnv(t)
		ctx := context.Background()
		if err := svc.Submit(ctx, fp, testProofPayment, nil, testPayer); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}

		_, err := svc.Verify(ctx, fp, testAgent, []byte("different-bytes"))
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("Verify() with wrong bytes error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("Rejected proof stays resubmittable", func(t *testing.T) {
		svc, stub, _ := newProofEnv(t)
		ctx := context.Background()
		if err := svc.Submit(ctx, fp, testProofPayment, nil, testPayer); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}

		stub.valid = false
		valid, err := svc.Verify(ctx, fp, testAgent, proof)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if valid {
			t.Fatal("Verify() = true for a rejected proof")
		}

		attestation, err := svc.Get(ctx, fp)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if attestation.Verified {
			t.Error("rejected proof must not latch")
		}
		if attestation.FailureCount != 1 {
			t.Errorf("failure count = %d, want 1", attestation.FailureCount)
		}
		if attestation.LastError == nil {
			t.Error("last error not recorded")
		}

		// A later attempt with corrected material succeeds.
		stub.valid = true
		valid, err = svc.Verify(ctx, fp, testAgent, proof)
		if err != nil {
			t.Fatalf("retry Verify() error = %v", err)
		}
		if !valid {
			t.Fatal("retry Verify() = false, want true")
		}
	})

	t.Run("Verifier error is recorded", func(t *testing.T) {
		svc, stub, _ := newProofEnv(t)
		ctx := context.Background()
		if err := svc.Submit(ctx, fp, testProofPayment, nil, testPayer); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}

		stub.err = errors.New("malformed proof encoding")
		if _, err := svc.Verify(ctx, fp, testAgent, proof); err == nil {
			t.Fatal("Verify() error = nil, want encoding error")
		}

		attestation, err := svc.Get(ctx, fp)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if attestation.FailureCount != 1 {
			t.Errorf("failure count = %d, want 1", attestation.FailureCount)
		}
	})

	t.Run("Verification is a one-way latch", func(t *testing.T) {
		svc, _, _ := newProofEnv(t)
		ctx := context.Background()
		if err := svc.Submit(ctx, fp, testProofPayment, nil, testPayer); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if _, err := svc.Verify(ctx, fp, testAgent, proof); err != nil {
			t.Fatalf("Verify() error = %v", err)
		}

		_, err := svc.Verify(ctx, fp, testAgent, proof)
		if !errors.Is(err, domain.ErrConflict) {
			t.Errorf("second Verify() error = %v, want ErrConflict", err)
		}
	})

	t.Run("Unknown fingerprint", func(t *testing.T) {
		svc, _, _ := newProofEnv(t)

		_, err := svc.Verify(context.Background(), fp, testAgent, proof)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Verify() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("Unauthorized agent", func(t *testing.T) {
		svc, _, _ := newProofEnv(t)

		_, err := svc.Verify(context.Background(), fp, "stranger", proof)
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("Verify() by stranger error = %v, want ErrUnauthorized", err)
		}
	})
}

func TestProofBatchVerify(t *testing.T) {
	svc, _, _ := newProofEnv(t)
	ctx := context.Background()

	proofA := []byte("proof-a")
	proofB := []byte("proof-b")
	fpA, fpB := fingerprintOf(proofA), fingerprintOf(proofB)
	unknown := fingerprintOf([]byte("never-submitted"))

	if err := svc.Submit(ctx, fpA, testProofPayment, nil, testPayer); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := svc.Submit(ctx, fpB, testProofPayment, nil, testPayer); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	// Unknown entries are skipped without failing the batch.
	err := svc.BatchVerify(ctx, testAgent,
		[]string{fpA, unknown, fpB},
		[][]byte{proofA, []byte("x"), proofB})
	if err != nil {
		t.Fatalf("BatchVerify() error = %v", err)
	}

	for _, fp := range []string{fpA, fpB} {
		attestation, err := svc.Get(ctx, fp)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", fp, err)
		}
		if !attestation.Verified {
			t.Errorf("proof %s not verified by batch", fp)
		}
	}

	if err := svc.BatchVerify(ctx, testAgent, []string{fpA}, nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("mismatched batch error = %v, want ErrInvalidInput", err)
	}
}

func TestProofGetByPayment(t *testing.T) {
	svc, _, _ := newProofEnv(t)
	ctx := context.Background()

	attestation, err := svc.GetByPayment(ctx, testProofPayment)
	if err != nil {
		t.Fatalf("GetByPayment() error = %v", err)
	}
	if attestation != nil {
		t.Fatalf("GetByPayment() = %v, want nil for unknown payment", attestation)
	}

	fp := fingerprintOf([]byte("bound-proof"))
	if err := svc.Submit(ctx, fp, testProofPayment, nil, testPayer); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	attestation, err = svc.GetByPayment(ctx, testProofPayment)
	if err != nil {
		t.Fatalf("GetByPayment() error = %v", err)
	}
	if attestation == nil || attestation.Fingerprint != fp {
		t.Errorf("GetByPayment() = %v, want fingerprint %s", attestation, fp)
	}
}
