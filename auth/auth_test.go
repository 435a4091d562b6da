package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func tokenServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"token123","token_type":"bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTokenIsCached(t *testing.T) {
	var calls int32
	srv := tokenServer(t, &calls)
	client := NewClientCred(Conf{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL})

	for i := 0; i < 3; i++ {
		token, err := client.Token(context.Background())
		if err != nil {
			t.Fatalf("Token returned error: %v", err)
		}
		if token != "token123" {
			t.Fatalf("unexpected token %s", token)
		}
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected one token request, got %d", calls)
	}
	if _, err := client.ForceRefresh(context.Background()); err != nil {
		t.Fatalf("ForceRefresh returned error: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected refresh request, got %d", calls)
	}
}

func TestCredentialsProvider(t *testing.T) {
	var calls int32
	srv := tokenServer(t, &calls)
	user, pass := NewClientCred(Conf{ClientID: "id", TokenURL: srv.URL}).CredentialsProvider("sim", nil)()
	if user != "sim" || pass != "token123" {
		t.Fatalf("unexpected credentials %s/%s", user, pass)
	}

	var reported error
	bad := NewClientCred(Conf{ClientID: "id", TokenURL: "http://127.0.0.1:1/token"})
	_, pass = bad.CredentialsProvider("sim", func(err error) { reported = err })()
	if pass != "" || reported == nil {
		t.Fatalf("expected failure to be reported, got %q %v", pass, reported)
	}
}

func TestConfValidate(t *testing.T) {
	if err := (Conf{ClientID: "id"}).Validate(); err == nil {
		t.Fatal("expected error")
	}
	if err := (Conf{ClientID: "id", TokenURL: "http://x"}).Validate(); err != nil {
		t.Fatal(err)
	}
}
