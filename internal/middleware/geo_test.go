package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveCountryPrefersHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-IPCountry", "ng")

	lookup := func(ip string) (string, error) {
		t.Fatalf("lookup should not run when a header hint exists")
		return "", nil
	}
	if got := ResolveCountry(req, lookup); got != "NG" {
		t.Fatalf("ResolveCountry() = %q, want NG", got)
	}
}

func TestResolveCountryFallsBackToLookup(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:4444"

	lookup := func(ip string) (string, error) {
		if ip != "203.0.113.9" {
			t.Fatalf("lookup ip = %q", ip)
		}
		return "GH", nil
	}
	if got := ResolveCountry(req, lookup); got != "GH" {
		t.Fatalf("ResolveCountry() = %q, want GH", got)
	}
}

func TestResolveCountryLookupErrorYieldsEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	lookup := func(ip string) (string, error) {
		return "", errors.New("no database")
	}
	if got := ResolveCountry(req, lookup); got != "" {
		t.Fatalf("ResolveCountry() = %q, want empty", got)
	}
}

func TestGeoMiddlewareStoresCountry(t *testing.T) {
	var got string
	handler := Geo(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CountryFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Country-Code", "KE")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got != "KE" {
		t.Fatalf("CountryFromContext() = %q, want KE", got)
	}
}
