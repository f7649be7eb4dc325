package token

import (
	"testing"
	"time"
)

func TestGenerate_Format(t *testing.T) {
	tok := Generate()
	if len(tok) != Length*2 {
		t.Errorf("token length: got %d, want %d", len(tok), Length*2)
	}
	for _, c := range tok {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Errorf("token should be lowercase hex, got %q", tok)
			break
		}
	}
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok := Generate()
		if seen[tok] {
			t.Fatalf("duplicate token generated: %s", tok)
		}
		seen[tok] = true
	}
}

func TestNewIssuer_DefaultTTL(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Hour} {
		iss := NewIssuer(ttl)
		if iss.TTL() != DefaultTTL {
			t.Errorf("NewIssuer(%v).TTL() = %v, want %v", ttl, iss.TTL(), DefaultTTL)
		}
	}
}

func TestIssuer_Issue(t *testing.T) {
	iss := NewIssuer(time.Hour)

	before := time.Now().UTC()
	tok, expires := iss.Issue()
	after := time.Now().UTC()

	if tok == "" {
		t.Fatal("expected a token")
	}
	if expires.Before(before.Add(time.Hour)) || expires.After(after.Add(time.Hour)) {
		t.Errorf("expiry %v not within expected window around now+1h", expires)
	}
}
