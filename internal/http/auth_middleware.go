package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/featherfn/metagate/internal/security"
	"github.com/featherfn/metagate/internal/store"
	"github.com/featherfn/metagate/internal/util"
)

// Gin context keys set by the middleware below.
const (
	ContextIdentity      = "identity"
	ContextTransactionID = "transactionID"
)

// TransactionIDMiddleware stamps each request with a correlation id used
// only for logging. It does not propagate cancellation anywhere.
func TransactionIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		transactionID := strings.TrimSpace(c.GetHeader("X-Request-Id"))
		if transactionID == "" {
			transactionID = uuid.NewString()
		}
		c.Set(ContextTransactionID, transactionID)
		c.Writer.Header().Set("X-Request-Id", transactionID)
		c.Next()
	}
}

// IdentityAuthMiddleware authenticates callers by HTTP Basic authkey
// (uuid as user, key as password) or by a bearer identity token, and
// injects the resolved identity into the context.
func IdentityAuthMiddleware(subjects store.SubjectStore, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, pass, okBasic := c.Request.BasicAuth(); okBasic {
			ident, errGet := subjects.GetByUUID(c.Request.Context(), user)
			if errGet != nil {
				if errors.Is(errGet, store.ErrNoDocument) {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
					return
				}
				log.WithError(errGet).Error("identity auth middleware: subject lookup failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authentication service error"})
				return
			}
			if ident.AuthKey.Key != pass {
				log.Debugf("identity auth middleware: key mismatch for %s", util.HideKey(user))
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			c.Set(ContextIdentity, *ident)
			c.Next()
			return
		}

		if token, okBearer := bearerToken(c.GetHeader("Authorization")); okBearer {
			ident, errParse := security.ParseIdentityToken(jwtSecret, token)
			if errParse != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errParse.Error()})
				return
			}
			c.Set(ContextIdentity, ident)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
	}
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
