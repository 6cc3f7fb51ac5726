// secp256k1.go implements ECDSA public key recovery for the ecrecover
// precompile, backed by the decred secp256k1 implementation.
package crypto

import (
	"errors"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

var (
	secp256k1N     = secp256k1.S256().N
	secp256k1halfN = new(big.Int).Rsh(secp256k1N, 1)

	ErrInvalidSignatureLen = errors.New("crypto: invalid signature length")
	ErrInvalidRecoveryID   = errors.New("crypto: invalid recovery id")
)

// ValidateSignatureValues checks that r and s are within [1, N-1] and, when
// homestead is true, that s is in the lower half of the curve order (EIP-2).
// v is the raw recovery id (0 or 1).
func ValidateSignatureValues(v byte, r, s *big.Int, homestead bool) bool {
	if v > 1 {
		return false
	}
	if r.Sign() <= 0 || s.Sign() <= 0 {
		return false
	}
	if r.Cmp(secp256k1N) >= 0 || s.Cmp(secp256k1N) >= 0 {
		return false
	}
	if homestead && s.Cmp(secp256k1halfN) > 0 {
		return false
	}
	return true
}

// Ecrecover recovers the uncompressed public key (65 bytes, 0x04 prefix)
// that produced sig over hash. sig is 65 bytes: R (32) || S (32) || V (1),
// where V is the raw recovery id (0 or 1).
func Ecrecover(hash, sig []byte) ([]byte, error) {
	if len(sig) != 65 {
		return nil, ErrInvalidSignatureLen
	}
	if sig[64] > 3 {
		return nil, ErrInvalidRecoveryID
	}

	// decred's RecoverCompact expects a 65-byte [recovery-id || R || S]
	// signature with the recovery id biased by compactSigMagicOffset (27).
	compact := make([]byte, 65)
	compact[0] = sig[64] + 27
	copy(compact[1:33], sig[0:32])
	copy(compact[33:65], sig[32:64])

	pub, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed(), nil
}

// SigToPub recovers the ECDSA public key from hash and a 65-byte compact
// signature, returning it in the same uncompressed form as Ecrecover.
func SigToPub(hash, sig []byte) ([]byte, error) {
	return Ecrecover(hash, sig)
}
