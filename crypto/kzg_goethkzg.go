//go:build goethkzg

// Real go-eth-kzg backend for the point evaluation precompile.
//
// This file wraps github.com/crate-crypto/go-eth-kzg to perform actual
// single-point KZG proof verification against the real Ethereum ceremony
// trusted setup. It is opt-in via build tag because loading the setup takes
// several seconds and holds a multi-hundred-megabyte SRS in memory -- not
// something every caller of this package wants paid on process start.
//
// Build with: go build -tags goethkzg ./...
package crypto

import (
	"fmt"
	"sync"

	goethkzg "github.com/crate-crypto/go-eth-kzg"
)

// goEthKZGPointVerifier wraps a go-eth-kzg Context to verify single-point
// KZG openings using the real Ethereum ceremony SRS.
type goEthKZGPointVerifier struct {
	ctx *goethkzg.Context
}

var _ KZGPointVerifier = (*goEthKZGPointVerifier)(nil)

var (
	goEthKZGOnce sync.Once
	goEthKZGCtx  *goethkzg.Context
	goEthKZGErr  error
)

// NewGoEthKZGPointVerifier initializes a go-eth-kzg Context from the
// embedded Ethereum ceremony trusted setup. This is expensive (~2-5s) and
// is memoized so repeated calls are cheap after the first.
func NewGoEthKZGPointVerifier() (KZGPointVerifier, error) {
	goEthKZGOnce.Do(func() {
		goEthKZGCtx, goEthKZGErr = goethkzg.NewContext4096Secure()
	})
	if goEthKZGErr != nil {
		return nil, fmt.Errorf("kzg: failed to initialize go-eth-kzg context: %w", goEthKZGErr)
	}
	return &goEthKZGPointVerifier{ctx: goEthKZGCtx}, nil
}

func (v *goEthKZGPointVerifier) Name() string { return "go-eth-kzg" }

// VerifyKZGProof checks that the polynomial committed to by commitment
// evaluates to y at z, per the EIP-4844 point evaluation precompile.
func (v *goEthKZGPointVerifier) VerifyKZGProof(commitment, z, y, proof []byte) error {
	if len(commitment) != KZGBytesPerCommitment {
		return ErrKZGInvalidCommitmentSize
	}
	if len(proof) != KZGBytesPerProof {
		return ErrKZGInvalidProofSize
	}

	var comm goethkzg.KZGCommitment
	copy(comm[:], commitment)

	var zScalar, yScalar goethkzg.Scalar
	copy(zScalar[:], z)
	copy(yScalar[:], y)

	var p goethkzg.KZGProof
	copy(p[:], proof)

	if err := v.ctx.VerifyKZGProof(comm, zScalar, yScalar, p); err != nil {
		return ErrKZGProofInvalid
	}
	return nil
}
