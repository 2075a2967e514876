package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docprep-backend/internal/shared/server/respond"
	"docprep-backend/internal/shared/util"
)

const clientIDKey = "clientId"

// Paths reachable without a key.
var publicPaths = map[string]struct{}{
	"/":              {},
	"/api/v1/health": {},
	"/metrics":       {},
}

// APIKey requires one of keys in the X-Api-Key header or as a bearer token.
// With no keys configured every request is let through anonymously.
func APIKey(keys []string) gin.HandlerFunc {
	allowed := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if trimmed := strings.TrimSpace(k); trimmed != "" {
			allowed = append(allowed, []byte(trimmed))
		}
	}

	return func(c *gin.Context) {
		if len(allowed) == 0 || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		if _, ok := publicPaths[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		key := presentedKey(c)
		if key == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing API key", nil)
			return
		}
		for _, candidate := range allowed {
			if subtle.ConstantTimeCompare([]byte(key), candidate) == 1 {
				c.Set(clientIDKey, "key:"+util.Checksum([]byte(key))[:12])
				c.Next()
				return
			}
		}
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "invalid API key", nil)
	}
}

// ClientIDFromContext returns the authenticated client identifier, if any.
func ClientIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(clientIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

func presentedKey(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader("X-Api-Key")); key != "" {
		return key
	}
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}
