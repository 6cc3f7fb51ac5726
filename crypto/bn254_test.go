package crypto

import (
	"bytes"
	"math/big"
	"testing"
)

func encodeG1Point(x, y int64) []byte {
	out := make([]byte, 64)
	new(big.Int).SetInt64(x).FillBytes(out[0:32])
	new(big.Int).SetInt64(y).FillBytes(out[32:64])
	return out
}

func TestBN254Add_IdentityPlusIdentity(t *testing.T) {
	input := make([]byte, 128) // (0,0) + (0,0)
	out, err := BN254Add(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out, make([]byte, 64)) {
		t.Fatalf("expected identity result, got %x", out)
	}
}

func TestBN254Add_GeneratorPlusIdentity(t *testing.T) {
	gen := encodeG1Point(1, 2)
	input := append(append([]byte{}, gen...), make([]byte, 64)...)
	out, err := BN254Add(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out, gen) {
		t.Fatalf("expected generator + identity = generator, got %x want %x", out, gen)
	}
}

func TestBN254Add_InvalidPointRejected(t *testing.T) {
	bad := encodeG1Point(1, 1) // 1^2 != 1^3+3 mod p
	input := append(append([]byte{}, bad...), make([]byte, 64)...)
	if _, err := BN254Add(input); err == nil {
		t.Fatal("expected an error for a point not on the curve")
	}
}

func TestBN254Add_ShortInputZeroPadded(t *testing.T) {
	// An empty input is treated as two (0,0) points.
	out, err := BN254Add(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out, make([]byte, 64)) {
		t.Fatalf("expected identity result from empty input, got %x", out)
	}
}

func TestBN254ScalarMul_ByZero(t *testing.T) {
	gen := encodeG1Point(1, 2)
	input := append(append([]byte{}, gen...), make([]byte, 32)...) // scalar = 0
	out, err := BN254ScalarMul(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out, make([]byte, 64)) {
		t.Fatalf("expected scalar*0 = identity, got %x", out)
	}
}

func TestBN254ScalarMul_ByOne(t *testing.T) {
	gen := encodeG1Point(1, 2)
	scalar := make([]byte, 32)
	scalar[31] = 1
	input := append(append([]byte{}, gen...), scalar...)
	out, err := BN254ScalarMul(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out, gen) {
		t.Fatalf("expected scalar*1 = point itself, got %x want %x", out, gen)
	}
}

func TestBN254PairingCheck_EmptyInputIsTrue(t *testing.T) {
	out, err := BN254PairingCheck(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := make([]byte, 32)
	want[31] = 1
	if !bytes.Equal(out, want) {
		t.Fatalf("expected true (1) for an empty pairing check, got %x", out)
	}
}

func TestBN254PairingCheck_RejectsMisalignedLength(t *testing.T) {
	if _, err := BN254PairingCheck(make([]byte, 191)); err == nil {
		t.Fatal("expected an error for input length not a multiple of 192")
	}
}
