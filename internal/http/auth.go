package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/featherfn/metagate/internal/security"
)

// AuthHandler exchanges basic credentials for bearer identity tokens.
type AuthHandler struct {
	jwtSecret string
	expiry    time.Duration
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(jwtSecret string, expiry time.Duration) *AuthHandler {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &AuthHandler{jwtSecret: jwtSecret, expiry: expiry}
}

// Token handles POST /api/:version/auth/token. The request must already
// carry a valid identity (resolved by the auth middleware from basic
// credentials); the response is a signed bearer token for the same
// identity.
func (h *AuthHandler) Token(c *gin.Context) {
	ident, okIdent := identityFrom(c)
	if !okIdent {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	token, errSign := security.GenerateIdentityToken(h.jwtSecret, ident, h.expiry)
	if errSign != nil {
		log.WithError(errSign).Error("auth token: sign failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int64(h.expiry / time.Second),
	})
}
