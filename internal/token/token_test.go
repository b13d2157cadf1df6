package token

import (
	"testing"
)

func TestGenerateLengthAndAlphabet(t *testing.T) {
	tok, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(tok) != Length {
		t.Errorf("token length = %d, want %d", len(tok), Length)
	}
	for _, c := range tok {
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		default:
			t.Errorf("token contains non-alphanumeric character %q", c)
		}
	}
}

func TestGenerateIsUnpredictable(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error: %v", err)
		}
		if seen[tok] {
			t.Fatalf("duplicate token after %d draws: %s", i, tok)
		}
		seen[tok] = true
	}
}
