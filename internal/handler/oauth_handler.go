package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/ezazahamad2003/pre-funnel/internal/auth"
	"github.com/ezazahamad2003/pre-funnel/internal/config"
	"github.com/ezazahamad2003/pre-funnel/internal/entity"
	"github.com/ezazahamad2003/pre-funnel/internal/service"
)

var (
	xEndpoint = oauth2.Endpoint{
		AuthURL:  "https://twitter.com/i/oauth2/authorize",
		TokenURL: "https://api.twitter.com/2/oauth2/token",
	}
	linkedinEndpoint = oauth2.Endpoint{
		AuthURL:  "https://www.linkedin.com/oauth/v2/authorization",
		TokenURL: "https://www.linkedin.com/oauth/v2/accessToken",
	}

	xScopes        = []string{"tweet.read", "users.read", "follows.read", "offline.access"}
	linkedinScopes = []string{"r_liteprofile", "r_emailaddress"}
)

// OAuthHandler runs the authorize redirect and callback exchange for the
// platforms that support personal credentials.
type OAuthHandler struct {
	state   *auth.StateManager
	users   *service.UserService
	configs map[entity.Channel]*oauth2.Config
}

// OAuthOption configures optional handler dependencies.
type OAuthOption func(*OAuthHandler)

// WithOAuthEndpoint overrides a platform's endpoints. Tests only.
func WithOAuthEndpoint(platform entity.Channel, endpoint oauth2.Endpoint) OAuthOption {
	return func(h *OAuthHandler) {
		if cfg, ok := h.configs[platform]; ok {
			cfg.Endpoint = endpoint
		}
	}
}

// NewOAuthHandler constructs a handler covering every configured platform.
func NewOAuthHandler(state *auth.StateManager, users *service.UserService, x, linkedin config.OAuthConfig, opts ...OAuthOption) *OAuthHandler {
	h := &OAuthHandler{
		state:   state,
		users:   users,
		configs: make(map[entity.Channel]*oauth2.Config),
	}
	if x.Configured() {
		h.configs[entity.ChannelX] = &oauth2.Config{
			ClientID:     x.ClientID,
			ClientSecret: x.ClientSecret,
			RedirectURL:  x.RedirectURL,
			Scopes:       xScopes,
			Endpoint:     xEndpoint,
		}
	}
	if linkedin.Configured() {
		h.configs[entity.ChannelLinkedIn] = &oauth2.Config{
			ClientID:     linkedin.ClientID,
			ClientSecret: linkedin.ClientSecret,
			RedirectURL:  linkedin.RedirectURL,
			Scopes:       linkedinScopes,
			Endpoint:     linkedinEndpoint,
		}
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Authorize handles GET /auth/:platform, redirecting to the provider's
// consent page with a signed state binding the user to the platform.
func (h *OAuthHandler) Authorize(c echo.Context) error {
	platform := entity.Channel(strings.ToLower(c.Param("platform")))
	cfg, ok := h.configs[platform]
	if !ok {
		return Error(c, http.StatusNotFound, "platform not available for oauth")
	}

	userID := strings.TrimSpace(c.QueryParam("user_id"))
	if userID == "" {
		return Error(c, http.StatusBadRequest, "user_id query parameter is required")
	}

	state, err := h.state.Issue(userID, string(platform))
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to issue oauth state")
	}

	return c.Redirect(http.StatusFound, cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))
}

// Callback handles GET /auth/:platform/callback: verify state, exchange the
// code, persist the sealed credential.
func (h *OAuthHandler) Callback(c echo.Context) error {
	platform := entity.Channel(strings.ToLower(c.Param("platform")))
	cfg, ok := h.configs[platform]
	if !ok {
		return Error(c, http.StatusNotFound, "platform not available for oauth")
	}

	if provErr := c.QueryParam("error"); provErr != "" {
		return Error(c, http.StatusBadRequest, "authorization was denied: "+provErr)
	}

	claims, err := h.state.Verify(c.QueryParam("state"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid or expired oauth state")
	}
	if claims.Platform != string(platform) {
		return Error(c, http.StatusBadRequest, "oauth state does not match platform")
	}

	code := c.QueryParam("code")
	if code == "" {
		return Error(c, http.StatusBadRequest, "code query parameter is required")
	}

	token, err := cfg.Exchange(c.Request().Context(), code)
	if err != nil {
		log.Warn().Err(err).Str("platform", string(platform)).Msg("oauth code exchange failed")
		return Error(c, http.StatusBadGateway, "token exchange failed")
	}

	userID, err := parseCallbackUser(claims.Subject)
	if err != nil {
		return Error(c, http.StatusBadRequest, "oauth state carries an invalid user")
	}

	conn := &entity.SocialConnection{
		UserID:       userID,
		Platform:     platform,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		conn.ExpiresAt = &expiry
	}

	if err := h.users.SaveOAuthConnection(c.Request().Context(), conn); err != nil {
		return userError(c, err, "failed to store connection")
	}

	return Success(c, http.StatusOK, string(platform)+" account connected", map[string]any{
		"platform": string(platform),
		"user_id":  userID.String(),
	})
}

func parseCallbackUser(subject string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(subject))
}
