package stream

import (
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestAccessTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws/feed?access_token=query-token", nil)
	if got := accessTokenFromRequest(r); got != "query-token" {
		t.Fatalf("query token: got %q", got)
	}

	r = httptest.NewRequest("GET", "/ws/feed", nil)
	r.Header.Set("Authorization", "Bearer header-token")
	if got := accessTokenFromRequest(r); got != "header-token" {
		t.Fatalf("header token: got %q", got)
	}

	// Query wins when both are present.
	r = httptest.NewRequest("GET", "/ws/feed?access_token=query-token", nil)
	r.Header.Set("Authorization", "Bearer header-token")
	if got := accessTokenFromRequest(r); got != "query-token" {
		t.Fatalf("both: got %q", got)
	}

	r = httptest.NewRequest("GET", "/ws/feed", nil)
	if got := accessTokenFromRequest(r); got != "" {
		t.Fatalf("no token: got %q", got)
	}

	r = httptest.NewRequest("GET", "/ws/feed", nil)
	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	if got := accessTokenFromRequest(r); got != "" {
		t.Fatalf("non-bearer scheme: got %q", got)
	}
}

func TestEnforceOrigin(t *testing.T) {
	g := &Gateway{
		originRequired: true,
		allowedOrigins: []string{"http://localhost", "https://app.example.com"},
	}

	cases := []struct {
		origin string
		wantOK bool
	}{
		{"", false},
		{"http://localhost", true},
		{"http://localhost:3000", true}, // host match ignores port
		{"https://app.example.com", true},
		{"https://evil.example.com", false},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", "/ws/feed", nil)
		if tc.origin != "" {
			r.Header.Set("Origin", tc.origin)
		}
		err := g.enforceOrigin(r)
		if (err == nil) != tc.wantOK {
			t.Errorf("origin %q: err = %v, want ok=%v", tc.origin, err, tc.wantOK)
		}
	}

	// Origin optional when not required.
	g.originRequired = false
	r := httptest.NewRequest("GET", "/ws/feed", nil)
	if err := g.enforceOrigin(r); err != nil {
		t.Fatalf("optional origin: %v", err)
	}
}

func TestDeriveOriginPatterns(t *testing.T) {
	got := deriveOriginPatterns([]string{
		"http://localhost",
		"http://localhost:3000",
		"https://app.example.com",
		"*",
		"",
	})
	want := []string{"app.example.com", "localhost"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestOriginHostOnly(t *testing.T) {
	cases := map[string]string{
		"http://localhost:3000":   "localhost",
		"https://App.Example.com": "app.example.com",
		"localhost:8080":          "localhost",
		"localhost":               "localhost",
		"":                        "",
	}
	for in, want := range cases {
		if got := originHostOnly(in); got != want {
			t.Errorf("originHostOnly(%q) = %q, want %q", in, got, want)
		}
	}
}
