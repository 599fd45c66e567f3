package instagram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func newTestClient(t *testing.T, tokenURL, graphURL string) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{
		ClientID:         "app-id",
		ClientSecret:     "app-secret",
		RedirectURI:      "http://localhost:5000/auth/callback",
		AuthorizationURL: "https://provider.example/oauth/authorize",
		TokenURL:         tokenURL,
		GraphURL:         graphURL,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestAuthCodeURLCarriesExpectedParameters(t *testing.T) {
	client := newTestClient(t, "https://provider.example/oauth/access_token", "https://graph.example")

	authURL, err := url.Parse(client.AuthCodeURL("state-token"))
	if err != nil {
		t.Fatalf("failed to parse auth url: %v", err)
	}

	query := authURL.Query()
	expectations := map[string]string{
		"client_id":     "app-id",
		"redirect_uri":  "http://localhost:5000/auth/callback",
		"scope":         "user_profile,user_media",
		"response_type": "code",
		"state":         "state-token",
	}
	for key, want := range expectations {
		if got := query.Get(key); got != want {
			t.Fatalf("expected %s=%q, got %q", key, want, got)
		}
	}
}

func TestExchangeCodeSendsFormFieldsAndDecodesGrant(t *testing.T) {
	var observedForm url.Values
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse token request form: %v", err)
		}
		observedForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok123","user_id":"999"}`))
	}))
	defer tokenServer.Close()

	client := newTestClient(t, tokenServer.URL, "https://graph.example")

	grant, err := client.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	if grant.AccessToken != "tok123" {
		t.Fatalf("unexpected access token: %q", grant.AccessToken)
	}
	if grant.UserID != "999" {
		t.Fatalf("unexpected user id: %q", grant.UserID)
	}

	formExpectations := map[string]string{
		"client_id":     "app-id",
		"client_secret": "app-secret",
		"grant_type":    "authorization_code",
		"redirect_uri":  "http://localhost:5000/auth/callback",
		"code":          "auth-code",
	}
	for key, want := range formExpectations {
		if got := observedForm.Get(key); got != want {
			t.Fatalf("expected form field %s=%q, got %q", key, want, got)
		}
	}
}

func TestExchangeCodeAcceptsNumericUserID(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok123","user_id":999}`))
	}))
	defer tokenServer.Close()

	client := newTestClient(t, tokenServer.URL, "https://graph.example")

	grant, err := client.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	if grant.UserID != "999" {
		t.Fatalf("expected numeric user id to be normalized, got %q", grant.UserID)
	}
}

func TestExchangeCodeClassifiesRejection(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_type":"OAuthException","error_message":"Invalid authorization code"}`))
	}))
	defer tokenServer.Close()

	client := newTestClient(t, tokenServer.URL, "https://graph.example")

	_, err := client.ExchangeCode(context.Background(), "bad-code")
	if !errors.Is(err, ErrExchangeRejected) {
		t.Fatalf("expected exchange rejection, got %v", err)
	}
}

func TestExchangeCodeClassifiesMissingAccessToken(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user_id":"999"}`))
	}))
	defer tokenServer.Close()

	client := newTestClient(t, tokenServer.URL, "https://graph.example")

	_, err := client.ExchangeCode(context.Background(), "auth-code")
	if !errors.Is(err, ErrNoAccessToken) {
		t.Fatalf("expected missing access token error, got %v", err)
	}
}

func TestExchangeCodeClassifiesMissingUserID(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok123"}`))
	}))
	defer tokenServer.Close()

	client := newTestClient(t, tokenServer.URL, "https://graph.example")

	_, err := client.ExchangeCode(context.Background(), "auth-code")
	if !errors.Is(err, ErrNoSubject) {
		t.Fatalf("expected missing subject error, got %v", err)
	}
}

func TestExchangeCodeClassifiesNetworkFailure(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	tokenURL := tokenServer.URL
	tokenServer.Close()

	client := newTestClient(t, tokenURL, "https://graph.example")

	_, err := client.ExchangeCode(context.Background(), "auth-code")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestFetchProfileRequestsExpectedFields(t *testing.T) {
	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/999" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		query := r.URL.Query()
		if got := query.Get("fields"); got != "id,username,account_type" {
			t.Errorf("unexpected fields parameter %q", got)
		}
		if got := query.Get("access_token"); got != "tok123" {
			t.Errorf("unexpected access token %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"999","username":"alice","account_type":"PERSONAL"}`))
	}))
	defer graphServer.Close()

	client := newTestClient(t, "https://provider.example/oauth/access_token", graphServer.URL)

	profile, err := client.FetchProfile(context.Background(), "999", "tok123")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if profile.ID != "999" || profile.Username != "alice" || profile.AccountType != "PERSONAL" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestFetchProfileDefaultsOptionalFields(t *testing.T) {
	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"999"}`))
	}))
	defer graphServer.Close()

	client := newTestClient(t, "https://provider.example/oauth/access_token", graphServer.URL)

	profile, err := client.FetchProfile(context.Background(), "999", "tok123")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if profile.Username != "" || profile.AccountType != "" {
		t.Fatalf("expected optional fields to default to empty, got %+v", profile)
	}
}

func TestFetchProfileClassifiesRejection(t *testing.T) {
	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer graphServer.Close()

	client := newTestClient(t, "https://provider.example/oauth/access_token", graphServer.URL)

	_, err := client.FetchProfile(context.Background(), "999", "tok123")
	if !errors.Is(err, ErrProfileRejected) {
		t.Fatalf("expected profile rejection, got %v", err)
	}
}

func TestFetchProfileClassifiesNetworkFailure(t *testing.T) {
	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	graphURL := graphServer.URL
	graphServer.Close()

	client := newTestClient(t, "https://provider.example/oauth/access_token", graphURL)

	_, err := client.FetchProfile(context.Background(), "999", "tok123")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}
