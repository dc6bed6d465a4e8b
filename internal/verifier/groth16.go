package verifier

import (
	"bytes"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
)

// Groth16Verifier performs real pairing-based verification of Groth16 proofs
// over BN254. The verifying key is fixed at construction; proof and public
// witness arrive serialized in gnark's canonical encoding.
type Groth16Verifier struct {
	vk groth16.VerifyingKey
}

// NewGroth16Verifier parses a serialized BN254 verifying key.
func NewGroth16Verifier(vkBytes []byte) (*Groth16Verifier, error) {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(vkBytes)); err != nil {
		return nil, fmt.Errorf("failed to parse verifying key: %w", err)
	}
	return &Groth16Verifier{vk: vk}, nil
}

// Verify deserializes the proof and public witness and runs the pairing
// check. A failing pairing check returns (false, nil); only malformed
// material is an error.
func (v *Groth16Verifier) Verify(proof, publicInput []byte) (bool, error) {
	p := groth16.NewProof(ecc.BN254)
	if _, err := p.ReadFrom(bytes.NewReader(proof)); err != nil {
		return false, fmt.Errorf("failed to parse proof: %w", err)
	}

	w, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return false, fmt.Errorf("failed to allocate witness: %w", err)
	}
	if _, err := w.ReadFrom(bytes.NewReader(publicInput)); err != nil {
		return false, fmt.Errorf("failed to parse public witness: %w", err)
	}

	if err := groth16.Verify(p, v.vk, w); err != nil {
		return false, nil
	}
	return true, nil
}
