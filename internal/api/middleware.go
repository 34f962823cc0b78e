package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// APIKeyAuth authenticates requests via the X-API-Key header or a
// "Bearer <key>" Authorization header. Keys are compared as SHA-256
// digests in constant time. An empty key list rejects everything; running
// without keys must be an explicit deployment decision, not a default.
func APIKeyAuth(keys []string) gin.HandlerFunc {
	hashes := make([][32]byte, len(keys))
	for i, k := range keys {
		hashes[i] = sha256.Sum256([]byte(k))
	}

	return func(c *gin.Context) {
		presented := c.GetHeader("X-API-Key")
		if presented == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				presented = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if presented == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing API key"})
			return
		}

		presentedHash := sha256.Sum256([]byte(presented))
		for _, h := range hashes {
			if subtle.ConstantTimeCompare(h[:], presentedHash[:]) == 1 {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid API key"})
	}
}

// RequestSizeLimit caps request bodies to keep rule definitions and lead
// records within reason.
func RequestSizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
