package security

import (
	"strings"
	"testing"

	"github.com/bastianbaeza/JackdawSoft/internal/infra/config"
)

func newTestHasher() *Hasher {
	return NewHasher(config.Argon2Settings{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
}

func TestHashAndVerify(t *testing.T) {
	h := newTestHasher()
	encoded, err := h.Hash("Valid123!")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.Contains(encoded, ":") {
		t.Fatalf("encoded hash %q missing salt separator", encoded)
	}

	ok, err := h.Verify("Valid123!", encoded)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !ok {
		t.Error("correct password did not verify")
	}

	ok, err = h.Verify("Wrong456!", encoded)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if ok {
		t.Error("wrong password verified")
	}
}

func TestHashIsSalted(t *testing.T) {
	h := newTestHasher()
	first, _ := h.Hash("Valid123!")
	second, _ := h.Hash("Valid123!")
	if first == second {
		t.Error("two hashes of the same password must differ")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	h := newTestHasher()
	for _, encoded := range []string{"", "nocolon", "a:b:c", "!!!:###"} {
		if _, err := h.Verify("whatever", encoded); err == nil {
			t.Errorf("Verify(%q) = nil error, want ErrMalformedHash", encoded)
		}
	}
}
