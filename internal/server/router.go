package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/auth-demos/iglogin/internal/login"
	"github.com/auth-demos/iglogin/internal/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	stateCookieName   = "ig_login_state"
	defaultStateTTL   = 10 * time.Minute
	listUsersErrorMsg = "Failed to fetch users"
)

var (
	errMissingProvider = errors.New("authorization provider dependency required")
	errMissingStates   = errors.New("state issuer dependency required")
	errMissingPipeline = errors.New("callback pipeline dependency required")
	errMissingUsers    = errors.New("user lister dependency required")
)

// AuthProvider builds the third-party authorization redirect URL.
type AuthProvider interface {
	AuthCodeURL(state string) string
}

// StateManager mints and checks the per-login state tokens.
type StateManager interface {
	Issue() (string, error)
	Validate(token string) error
}

// CallbackRunner drives one callback request to its terminal outcome.
type CallbackRunner interface {
	Run(ctx context.Context, callback login.Callback) login.Outcome
}

// UserLister reads the persisted users for the listing endpoint.
type UserLister interface {
	ListAll(ctx context.Context) ([]users.ListedUser, error)
}

// Dependencies bundles the collaborators of the HTTP layer.
type Dependencies struct {
	Provider AuthProvider
	States   StateManager
	Pipeline CallbackRunner
	Users    UserLister
	StateTTL time.Duration
	Logger   *zap.Logger
}

// NewHTTPHandler wires the routes of the login service.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Provider == nil {
		return nil, errMissingProvider
	}
	if deps.States == nil {
		return nil, errMissingStates
	}
	if deps.Pipeline == nil {
		return nil, errMissingPipeline
	}
	if deps.Users == nil {
		return nil, errMissingUsers
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	stateTTL := deps.StateTTL
	if stateTTL <= 0 {
		stateTTL = defaultStateTTL
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	router.SetHTMLTemplate(parseViewTemplates())

	handler := &httpHandler{
		provider: deps.Provider,
		states:   deps.States,
		pipeline: deps.Pipeline,
		users:    deps.Users,
		stateTTL: stateTTL,
		logger:   logger,
	}

	router.GET("/", handler.handleIndex)
	router.GET("/auth/login", handler.handleLogin)
	router.GET("/auth/callback", handler.handleCallback)
	router.GET("/users", handler.handleListUsers)

	return router, nil
}

type httpHandler struct {
	provider AuthProvider
	states   StateManager
	pipeline CallbackRunner
	users    UserLister
	stateTTL time.Duration
	logger   *zap.Logger
}

func (h *httpHandler) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", nil)
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	state, err := h.states.Issue()
	if err != nil {
		h.logger.Error("failed to issue login state", zap.Error(err))
		h.renderError(c, login.MessageUnexpected)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookieName, state, int(h.stateTTL.Seconds()), "/", "", false, true)

	redirectURL := h.provider.AuthCodeURL(state)
	h.logger.Info("redirecting to authorization endpoint")
	c.Redirect(http.StatusFound, redirectURL)
}

// handleCallback completes the login. A provider error or an absent code
// terminates before the state check so those callbacks report their own
// reason; everything else must present the state minted at /auth/login.
func (h *httpHandler) handleCallback(c *gin.Context) {
	callback := login.Callback{
		Code:          c.Query("code"),
		ProviderError: c.Query("error"),
	}

	if callback.ProviderError == "" && callback.Code != "" {
		if !h.verifyState(c) {
			h.renderError(c, login.MessageInvalidState)
			return
		}
	}

	outcome := h.pipeline.Run(c.Request.Context(), callback)
	if !outcome.Succeeded {
		h.renderError(c, outcome.Message)
		return
	}

	c.HTML(http.StatusOK, "success.html", gin.H{"Profile": outcome.Profile})
}

func (h *httpHandler) verifyState(c *gin.Context) bool {
	stateParam := c.Query("state")
	cookieValue, err := c.Cookie(stateCookieName)

	// The state cookie is single-use regardless of the verdict.
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookieName, "", -1, "/", "", false, true)

	if err != nil || cookieValue == "" {
		h.logger.Warn("callback missing state cookie")
		return false
	}
	if stateParam != cookieValue {
		h.logger.Warn("callback state mismatch")
		return false
	}
	if err := h.states.Validate(stateParam); err != nil {
		h.logger.Warn("callback state rejected", zap.Error(err))
		return false
	}
	return true
}

func (h *httpHandler) renderError(c *gin.Context, message string) {
	// Auth failures render as a regular page, not an HTTP error.
	c.HTML(http.StatusOK, "error.html", gin.H{"Message": message})
}

type listedUserPayload struct {
	InstagramID string    `json:"instagram_id"`
	Username    string    `json:"username"`
	AccountType string    `json:"account_type"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *httpHandler) handleListUsers(c *gin.Context) {
	listed, err := h.users.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": listUsersErrorMsg})
		return
	}

	payload := make([]listedUserPayload, 0, len(listed))
	for _, user := range listed {
		payload = append(payload, listedUserPayload{
			InstagramID: user.InstagramID,
			Username:    user.Username,
			AccountType: user.AccountType,
			CreatedAt:   user.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, payload)
}
