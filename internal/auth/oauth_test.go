package auth

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func testProvider(t *testing.T, userInfo http.HandlerFunc) *OAuthProvider {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok-123","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/userinfo", userInfo)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &OAuthProvider{
		name:        "google",
		userInfoURL: srv.URL + "/userinfo",
		config: &oauth2.Config{
			ClientID:     "client",
			ClientSecret: "secret",
			RedirectURL:  "http://localhost/callback",
			Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
		},
	}
}

func TestExchange(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			http.Error(w, "no token", http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"id":"g-1","name":"Alex"}`)
	})

	profile, err := p.Exchange(t.Context(), "code")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if profile.ID != "g-1" || profile.Name != "Alex" {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestExchangeUserInfoFailure(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})
	if _, err := p.Exchange(t.Context(), "code"); err == nil || !strings.Contains(err.Error(), "403") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestExchangeEmptySubject(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"Nobody"}`)
	})
	if _, err := p.Exchange(t.Context(), "code"); err == nil {
		t.Error("expected error for empty subject")
	}
}

func TestLoginURL(t *testing.T) {
	p := NewGoogleOAuth("cid", "secret", "http://localhost/cb")
	u := p.LoginURL("xyz")
	if !strings.Contains(u, "state=xyz") || !strings.Contains(u, "client_id=cid") {
		t.Errorf("unexpected login URL %s", u)
	}
	if p.Name() != "google" {
		t.Errorf("unexpected name %s", p.Name())
	}
}
