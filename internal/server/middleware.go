package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/adminkit-dev/adminkit/internal/auth"
	"github.com/adminkit-dev/adminkit/internal/models"
)

const (
	bearerPrefix = "Bearer "
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrRevokedToken = errors.New("token revoked")
)

// tokenBody is the JSON body shape of token-carrying POST requests
type tokenBody struct {
	Token string `json:"token"`
}

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

// extractToken looks for the token in the Authorization header, then the
// query string, then a JSON body.
func extractToken(c *gin.Context) (string, error) {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, bearerPrefix) {
		if token := strings.TrimPrefix(header, bearerPrefix); token != "" {
			return token, nil
		}
	}

	if token := c.Query("token"); token != "" {
		return token, nil
	}

	if c.Request.Method == http.MethodPost && c.Request.ContentLength != 0 {
		var body tokenBody
		// ShouldBindBodyWith caches the body so handlers can bind it again
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err == nil && body.Token != "" {
			return body.Token, nil
		}
	}

	return "", ErrMissingToken
}

func rejectSession(c *gin.Context, log zerolog.Logger, err error, code, message string) {
	log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	respondCode(c, http.StatusOK, code, message)
	c.Abort()
}

// SessionMiddleware validates the session token and reports failures as
// envelope codes: CodeSessionExpired for expired tokens and CodeInvalidToken
// for anything else.
func SessionMiddleware(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c)
		if err != nil {
			rejectSession(c, log, err, CodeInvalidToken, "Missing token")
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				rejectSession(c, log, err, CodeSessionExpired, "Session expired")
				return
			}
			rejectSession(c, log, err, CodeInvalidToken, "Invalid token")
			return
		}

		revoked, err := models.IsRevoked(db, claims.ID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to check token revocation")
			respondCode(c, http.StatusInternalServerError, CodeInternal, "Internal server error")
			c.Abort()
			return
		}
		if revoked {
			rejectSession(c, log, ErrRevokedToken, CodeInvalidToken, "Invalid token")
			return
		}

		sessionData := &auth.SessionData{
			UserID:   claims.UserID,
			Username: claims.Username,
			Roles:    claims.Roles,
			TokenID:  claims.ID,
		}
		if claims.ExpiresAt != nil {
			sessionData.ExpiresAt = claims.ExpiresAt.Time
		}
		setSession(c, sessionData)

		c.Next()
	}
}
