package bcrypt

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := New(bcrypt.MinCost)
	ctx := context.Background()

	hash, err := h.HashPassword(ctx, "secret123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "secret123" {
		t.Fatalf("hash must not be the plain password")
	}

	ok, err := h.VerifyPassword(ctx, "secret123", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}

	ok, err = h.VerifyPassword(ctx, "wrong-pass", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch without error, ok=%v err=%v", ok, err)
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	h := New(DefaultCost)
	if _, err := h.VerifyPassword(context.Background(), "x", "not-a-bcrypt-hash"); err == nil {
		t.Fatalf("expected error for malformed hash")
	}
}

func TestNewClampsInvalidCost(t *testing.T) {
	if got := New(99).cost; got != DefaultCost {
		t.Fatalf("cost: got %d want %d", got, DefaultCost)
	}
}
