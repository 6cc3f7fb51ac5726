package crypto

// KZG point evaluation backend for the EIP-4844 point evaluation precompile
// (0x0a). verify_kzg_proof(commitment, z, y, proof) asks whether the
// polynomial committed to by commitment evaluates to y at z.
//
// The default backend only checks that the commitment and proof are 48
// bytes long; it does not perform the pairing check, since that requires the
// ~800MB Ethereum KZG ceremony SRS to be loaded into memory. Building with
// `-tags goethkzg` swaps in a backend that loads the real ceremony setup via
// github.com/crate-crypto/go-eth-kzg and performs the actual verification.

import (
	"errors"
	"sync"
)

// KZG commitment and proof sizes: both are compressed BLS12-381 G1 points.
const (
	KZGBytesPerCommitment = 48
	KZGBytesPerProof      = 48
)

var (
	// ErrKZGProofInvalid is returned when a KZG proof fails verification.
	ErrKZGProofInvalid          = errors.New("kzg: proof verification failed")
	ErrKZGInvalidCommitmentSize = errors.New("kzg: commitment must be 48 bytes")
	ErrKZGInvalidProofSize      = errors.New("kzg: proof must be 48 bytes")
)

// KZGPointVerifier checks a single-point KZG opening proof.
type KZGPointVerifier interface {
	// VerifyKZGProof reports whether commitment opens to y at z under proof.
	// commitment and proof are 48-byte compressed G1 points; z and y are
	// 32-byte big-endian BLS scalars.
	VerifyKZGProof(commitment, z, y, proof []byte) error
	Name() string
}

// formatOnlyKZGVerifier accepts any proof whose operands are correctly
// shaped; it performs no cryptographic check. This is the default so that a
// plain `go build` of this module never needs the KZG trusted setup on disk.
type formatOnlyKZGVerifier struct{}

func (formatOnlyKZGVerifier) Name() string { return "kzg-format-only" }

func (formatOnlyKZGVerifier) VerifyKZGProof(commitment, z, y, proof []byte) error {
	if len(commitment) != KZGBytesPerCommitment {
		return ErrKZGInvalidCommitmentSize
	}
	if len(proof) != KZGBytesPerProof {
		return ErrKZGInvalidProofSize
	}
	return nil
}

var (
	activeKZGPointMu       sync.RWMutex
	activeKZGPointVerifier KZGPointVerifier = formatOnlyKZGVerifier{}
)

// DefaultKZGPointVerifier returns the active single-point KZG verifier.
func DefaultKZGPointVerifier() KZGPointVerifier {
	activeKZGPointMu.RLock()
	defer activeKZGPointMu.RUnlock()
	return activeKZGPointVerifier
}

// SetKZGPointVerifier installs the active single-point KZG verifier. Passing
// nil resets to the format-only default.
func SetKZGPointVerifier(v KZGPointVerifier) {
	activeKZGPointMu.Lock()
	defer activeKZGPointMu.Unlock()
	if v == nil {
		v = formatOnlyKZGVerifier{}
	}
	activeKZGPointVerifier = v
}
