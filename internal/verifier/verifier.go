// Package verifier defines the pluggable zero-knowledge proof verification
// capability consumed by the attestation registry. The core depends on
// nothing beyond this contract: proof material and public input in, a
// deterministic boolean out, no side effects.
package verifier

import "errors"

// Verifier checks a serialized proof against its serialized public input.
// A false result means the proof is cryptographically invalid; an error means
// verification could not run (malformed material, missing key).
type Verifier interface {
	Verify(proof, publicInput []byte) (bool, error)
}

// Disabled is the capability used when no verifying key is configured. It
// refuses every proof with an error instead of silently accepting, so a
// misconfigured deployment can never latch an attestation.
type Disabled struct{}

func (Disabled) Verify(proof, publicInput []byte) (bool, error) {
	return false, errors.New("proof verification is not configured")
}
