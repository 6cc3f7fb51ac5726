package crypto

import "testing"

func TestFormatOnlyKZGVerifier_AcceptsCorrectShape(t *testing.T) {
	v := formatOnlyKZGVerifier{}
	commitment := make([]byte, KZGBytesPerCommitment)
	proof := make([]byte, KZGBytesPerProof)
	z := make([]byte, 32)
	y := make([]byte, 32)

	if err := v.VerifyKZGProof(commitment, z, y, proof); err != nil {
		t.Fatalf("unexpected error for well-formed operands: %v", err)
	}
}

func TestFormatOnlyKZGVerifier_RejectsBadCommitmentSize(t *testing.T) {
	v := formatOnlyKZGVerifier{}
	commitment := make([]byte, KZGBytesPerCommitment-1)
	proof := make([]byte, KZGBytesPerProof)

	err := v.VerifyKZGProof(commitment, nil, nil, proof)
	if err != ErrKZGInvalidCommitmentSize {
		t.Fatalf("expected ErrKZGInvalidCommitmentSize, got %v", err)
	}
}

func TestFormatOnlyKZGVerifier_RejectsBadProofSize(t *testing.T) {
	v := formatOnlyKZGVerifier{}
	commitment := make([]byte, KZGBytesPerCommitment)
	proof := make([]byte, KZGBytesPerProof-1)

	err := v.VerifyKZGProof(commitment, nil, nil, proof)
	if err != ErrKZGInvalidProofSize {
		t.Fatalf("expected ErrKZGInvalidProofSize, got %v", err)
	}
}

func TestDefaultKZGPointVerifier_IsFormatOnlyByDefault(t *testing.T) {
	SetKZGPointVerifier(nil)
	v := DefaultKZGPointVerifier()
	if v.Name() != "kzg-format-only" {
		t.Fatalf("expected the format-only backend by default, got %q", v.Name())
	}
}

type stubKZGVerifier struct{ called bool }

func (s *stubKZGVerifier) Name() string { return "stub" }
func (s *stubKZGVerifier) VerifyKZGProof(commitment, z, y, proof []byte) error {
	s.called = true
	return nil
}

func TestSetKZGPointVerifier_OverridesActiveBackend(t *testing.T) {
	stub := &stubKZGVerifier{}
	SetKZGPointVerifier(stub)
	defer SetKZGPointVerifier(nil)

	v := DefaultKZGPointVerifier()
	if v.Name() != "stub" {
		t.Fatalf("expected the stub backend to be active, got %q", v.Name())
	}
	if err := v.VerifyKZGProof(nil, nil, nil, nil); err != nil {
		t.Fatalf("unexpected error from stub: %v", err)
	}
	if !stub.called {
		t.Fatal("expected the stub's VerifyKZGProof to have been invoked")
	}
}

func TestSetKZGPointVerifier_NilResetsToFormatOnly(t *testing.T) {
	SetKZGPointVerifier(&stubKZGVerifier{})
	SetKZGPointVerifier(nil)
	if DefaultKZGPointVerifier().Name() != "kzg-format-only" {
		t.Fatal("expected nil to reset the active verifier to the format-only default")
	}
}
