package auth

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestHeaderResolver_KnownUser(t *testing.T) {
	res := NewHeaderResolver()
	req := httptest.NewRequest("GET", "/disasters", nil)
	req.Header.Set("X-User-Id", "contributor1")

	a, err := res.Resolve(req)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.ID != "contributor1" || a.Role != "contributor" {
		t.Fatalf("unexpected actor %+v", a)
	}
}

func TestHeaderResolver_FallsBackToDefault(t *testing.T) {
	res := NewHeaderResolver()

	for _, header := range []string{"", "nobody-known"} {
		req := httptest.NewRequest("GET", "/disasters", nil)
		if header != "" {
			req.Header.Set("X-User-Id", header)
		}
		a, err := res.Resolve(req)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if a.ID != "netrunnerX" {
			t.Fatalf("expected default actor, got %+v", a)
		}
	}
}

func TestJWTResolver_RoundTrip(t *testing.T) {
	res, err := NewJWTResolver("test-secret")
	if err != nil {
		t.Fatalf("resolver init: %v", err)
	}

	tok, err := res.IssueToken(time.Now(), Actor{ID: "A1", Role: "admin"}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest("GET", "/disasters", nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	a, err := res.Resolve(req)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if a.ID != "A1" || a.Role != "admin" {
		t.Fatalf("unexpected actor %+v", a)
	}
}

func TestJWTResolver_RejectsBadTokens(t *testing.T) {
	res, _ := NewJWTResolver("test-secret")

	cases := []struct {
		name  string
		setup func() string
	}{
		{"missing header", func() string { return "" }},
		{"garbage token", func() string { return "Bearer not-a-token" }},
		{"expired token", func() string {
			tok, _ := res.IssueToken(time.Now().Add(-2*time.Hour), Actor{ID: "A1"}, time.Minute)
			return "Bearer " + tok
		}},
		{"wrong secret", func() string {
			other, _ := NewJWTResolver("other-secret")
			tok, _ := other.IssueToken(time.Now(), Actor{ID: "A1"}, time.Hour)
			return "Bearer " + tok
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/disasters", nil)
			if h := tc.setup(); h != "" {
				req.Header.Set("Authorization", h)
			}
			if _, err := res.Resolve(req); err == nil {
				t.Fatalf("expected rejection")
			}
		})
	}
}
