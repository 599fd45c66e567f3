package login

import (
	"context"
	"errors"
	"fmt"

	"github.com/auth-demos/iglogin/internal/instagram"
	"github.com/auth-demos/iglogin/internal/users"
	"go.uber.org/zap"
)

// User-facing outcomes of the callback pipeline. Internal failure detail is
// logged only; the browser sees exactly one of these.
const (
	MessageNoCode         = "No authorization code received"
	MessageInvalidState   = "Invalid login state"
	MessageExchangeFailed = "Failed to get access token"
	MessageNoAccessToken  = "No access token received"
	MessageNetworkError   = "Network error occurred"
	MessageProfileFailed  = "Failed to fetch user profile"
	MessageSaveFailed     = "Failed to save user data"
	MessageUnexpected     = "An unexpected error occurred"
)

var (
	errMissingExchanger = errors.New("login: code exchanger required")
	errMissingFetcher   = errors.New("login: profile fetcher required")
	errMissingStore     = errors.New("login: user store required")
)

// CodeExchanger trades an authorization code for a token grant.
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, code string) (instagram.TokenGrant, error)
}

// ProfileFetcher retrieves the subject's profile with the granted token.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, userID, accessToken string) (instagram.Profile, error)
}

// UserStore persists the authenticated profile.
type UserStore interface {
	Upsert(ctx context.Context, record users.AuthorizedUser) error
}

// Callback carries the query parameters of an inbound callback request.
type Callback struct {
	Code          string
	ProviderError string
}

// Outcome is the terminal state of one pipeline run.
type Outcome struct {
	Succeeded bool
	Profile   instagram.Profile
	Message   string
}

// PipelineConfig describes the collaborators of the callback pipeline.
type PipelineConfig struct {
	Exchanger CodeExchanger
	Fetcher   ProfileFetcher
	Store     UserStore
	Logger    *zap.Logger
}

// Pipeline runs the exchange, fetch, persist sequence for one callback
// request. Each run is synchronous and independent; nothing is carried over
// between requests.
type Pipeline struct {
	exchanger CodeExchanger
	fetcher   ProfileFetcher
	store     UserStore
	logger    *zap.Logger
}

// NewPipeline constructs the pipeline with validated dependencies.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Exchanger == nil {
		return nil, errMissingExchanger
	}
	if cfg.Fetcher == nil {
		return nil, errMissingFetcher
	}
	if cfg.Store == nil {
		return nil, errMissingStore
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		exchanger: cfg.Exchanger,
		fetcher:   cfg.Fetcher,
		store:     cfg.Store,
		logger:    logger,
	}, nil
}

// Run drives the callback to its terminal state. A provider-supplied error or
// a missing code terminates before any outbound call is made.
func (p *Pipeline) Run(ctx context.Context, callback Callback) Outcome {
	if callback.ProviderError != "" {
		p.logger.Error("provider declined authorization", zap.String("error", callback.ProviderError))
		return failed(fmt.Sprintf("Authentication failed: %s", callback.ProviderError))
	}
	if callback.Code == "" {
		p.logger.Error("callback carried no authorization code")
		return failed(MessageNoCode)
	}

	p.logger.Info("authorization code received", zap.String("code_prefix", codePrefix(callback.Code)))

	grant, err := p.exchanger.ExchangeCode(ctx, callback.Code)
	if err != nil {
		return failed(exchangeMessage(err))
	}

	profile, err := p.fetcher.FetchProfile(ctx, grant.UserID, grant.AccessToken)
	if err != nil {
		if errors.Is(err, instagram.ErrNetwork) {
			return failed(MessageNetworkError)
		}
		return failed(MessageProfileFailed)
	}

	record := users.AuthorizedUser{
		InstagramID: profile.ID,
		Username:    profile.Username,
		AccountType: profile.AccountType,
		AccessToken: grant.AccessToken,
	}
	if err := p.store.Upsert(ctx, record); err != nil {
		return failed(MessageSaveFailed)
	}

	return Outcome{Succeeded: true, Profile: profile}
}

func exchangeMessage(err error) string {
	switch {
	case errors.Is(err, instagram.ErrNetwork):
		return MessageNetworkError
	case errors.Is(err, instagram.ErrNoAccessToken):
		return MessageNoAccessToken
	case errors.Is(err, instagram.ErrExchangeRejected), errors.Is(err, instagram.ErrNoSubject):
		return MessageExchangeFailed
	default:
		return MessageUnexpected
	}
}

func failed(message string) Outcome {
	return Outcome{Message: message}
}

func codePrefix(code string) string {
	if len(code) > 10 {
		return code[:10] + "..."
	}
	return code
}
