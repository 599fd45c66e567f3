package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	defaultTimeout  = 10 * time.Second
	maxLoggedBody   = 2048
	profileFieldSet = "id,username,account_type"
)

var (
	errMissingClientID     = errors.New("client id required")
	errMissingClientSecret = errors.New("client secret required")
	errMissingRedirectURI  = errors.New("redirect uri required")
	errMissingTokenURL     = errors.New("token url required")
	errMissingGraphURL     = errors.New("graph url required")

	// ErrInvalidClientConfig reports unusable construction parameters.
	ErrInvalidClientConfig = errors.New("instagram: invalid client config")
	// ErrNetwork indicates the outbound call never produced an HTTP response.
	ErrNetwork = errors.New("instagram: network failure")
	// ErrExchangeRejected indicates the token endpoint answered non-200.
	ErrExchangeRejected = errors.New("instagram: token endpoint rejected the code")
	// ErrNoAccessToken indicates a 200 token response without an access token.
	ErrNoAccessToken = errors.New("instagram: token response missing access token")
	// ErrNoSubject indicates a token grant without a user id.
	ErrNoSubject = errors.New("instagram: token response missing user id")
	// ErrProfileRejected indicates the profile endpoint answered non-200 or
	// returned an unusable body.
	ErrProfileRejected = errors.New("instagram: profile request rejected")
)

// ClientConfig bundles configuration for the Instagram API client.
type ClientConfig struct {
	ClientID         string
	ClientSecret     string
	RedirectURI      string
	AuthorizationURL string
	TokenURL         string
	GraphURL         string
	HTTPClient       *http.Client
	Timeout          time.Duration
	Logger           *zap.Logger
}

// TokenGrant is the decoded result of a successful code exchange.
type TokenGrant struct {
	AccessToken string
	UserID      string
}

// Profile holds the fields requested from the Graph API. Username and
// account type are optional in the provider response and default to "".
type Profile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	AccountType string `json:"account_type"`
}

// Client talks to Instagram's token and Graph endpoints. A single attempt is
// made per call; retries are the caller's concern (and the login flow has none).
type Client struct {
	oauth      *oauth2.Config
	httpClient *http.Client
	graphURL   string
	logger     *zap.Logger
}

// NewClient constructs a client with validated configuration.
func NewClient(cfg ClientConfig) (*Client, error) {
	switch {
	case strings.TrimSpace(cfg.ClientID) == "":
		return nil, fmt.Errorf("%w: %v", ErrInvalidClientConfig, errMissingClientID)
	case strings.TrimSpace(cfg.ClientSecret) == "":
		return nil, fmt.Errorf("%w: %v", ErrInvalidClientConfig, errMissingClientSecret)
	case strings.TrimSpace(cfg.RedirectURI) == "":
		return nil, fmt.Errorf("%w: %v", ErrInvalidClientConfig, errMissingRedirectURI)
	case strings.TrimSpace(cfg.TokenURL) == "":
		return nil, fmt.Errorf("%w: %v", ErrInvalidClientConfig, errMissingTokenURL)
	case strings.TrimSpace(cfg.GraphURL) == "":
		return nil, fmt.Errorf("%w: %v", ErrInvalidClientConfig, errMissingGraphURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			// Instagram wants a comma-separated scope list; a single scope
			// entry avoids the space join oauth2 applies to multiple scopes.
			Scopes: []string{"user_profile,user_media"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizationURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
		graphURL:   strings.TrimRight(cfg.GraphURL, "/"),
		logger:     logger,
	}, nil
}

// AuthCodeURL returns the authorization redirect URL carrying the given state.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for an access token and subject id.
func (c *Client) ExchangeCode(ctx context.Context, code string) (TokenGrant, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return TokenGrant{}, c.classifyExchangeError(err)
	}

	if token.AccessToken == "" {
		c.logger.Error("token response missing access token")
		return TokenGrant{}, ErrNoAccessToken
	}

	userID := subjectFromExtra(token.Extra("user_id"))
	if userID == "" {
		c.logger.Error("token response missing user id")
		return TokenGrant{}, ErrNoSubject
	}

	c.logger.Info("access token obtained", zap.String("user_id", userID))
	return TokenGrant{AccessToken: token.AccessToken, UserID: userID}, nil
}

func (c *Client) classifyExchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		c.logger.Error("token exchange failed",
			zap.Int("status", status),
			zap.ByteString("body", truncate(retrieveErr.Body)),
		)
		return fmt.Errorf("%w: status %d", ErrExchangeRejected, status)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		c.logger.Error("token exchange request failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	// oauth2 reports a 200 response without an access_token field as a bare
	// error; anything else unparseable lands in the same kind.
	c.logger.Error("token response unusable", zap.Error(err))
	return fmt.Errorf("%w: %v", ErrNoAccessToken, err)
}

// FetchProfile retrieves the subject's profile fields from the Graph API,
// authenticating with the access token as a query parameter.
func (c *Client) FetchProfile(ctx context.Context, userID, accessToken string) (Profile, error) {
	query := url.Values{}
	query.Set("fields", profileFieldSet)
	query.Set("access_token", accessToken)
	endpoint := c.graphURL + "/" + url.PathEscape(userID) + "?" + query.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrProfileRejected, err)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		c.logger.Error("profile request failed", zap.Error(err))
		return Profile{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		c.logger.Error("profile response read failed", zap.Error(err))
		return Profile{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if response.StatusCode != http.StatusOK {
		c.logger.Error("profile fetch failed",
			zap.Int("status", response.StatusCode),
			zap.ByteString("body", truncate(body)),
		)
		return Profile{}, fmt.Errorf("%w: status %d", ErrProfileRejected, response.StatusCode)
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		c.logger.Error("profile response undecodable", zap.Error(err))
		return Profile{}, fmt.Errorf("%w: %v", ErrProfileRejected, err)
	}
	if profile.ID == "" {
		c.logger.Error("profile response missing id", zap.ByteString("body", truncate(body)))
		return Profile{}, fmt.Errorf("%w: missing id", ErrProfileRejected)
	}

	c.logger.Info("user profile fetched", zap.String("username", profile.Username))
	return profile, nil
}

// subjectFromExtra tolerates the provider returning user_id as either a JSON
// string or a JSON number.
func subjectFromExtra(value interface{}) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case json.Number:
		return typed.String()
	default:
		return ""
	}
}

func truncate(body []byte) []byte {
	if len(body) > maxLoggedBody {
		return body[:maxLoggedBody]
	}
	return body
}
