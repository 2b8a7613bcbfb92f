package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// ClientHeader carries the tab id generated by the page script.
	ClientHeader = "X-Homeboard-Client"
	// ClientQueryParameter carries the tab id where headers cannot be set (EventSource, beacons).
	ClientQueryParameter = "client"
	// ClientCookie identifies requests that arrive without a tab id.
	ClientCookie = "homeboard_client"

	contextKeyClientID = "httpapi_client_id"
	clientCookiePath   = "/"
)

func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(context *gin.Context) {
		start := time.Now()
		context.Next()
		logger.Info("http",
			zap.String("method", context.Request.Method),
			zap.String("path", context.Request.URL.Path),
			zap.Int("status", context.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("ip", context.ClientIP()),
			zap.String("ua", context.Request.UserAgent()),
			zap.String("client", ClientIDFromContext(context)),
		)
	}
}

// ClientIdentity resolves the client (browser tab) behind a request: the tab
// header, then the query parameter, then the cookie. Requests carrying none of
// them receive a fresh cookie.
func ClientIdentity() gin.HandlerFunc {
	return func(context *gin.Context) {
		candidates := []string{
			context.GetHeader(ClientHeader),
			context.Query(ClientQueryParameter),
		}
		if cookieValue, cookieErr := context.Cookie(ClientCookie); cookieErr == nil {
			candidates = append(candidates, cookieValue)
		}

		clientID := ""
		for _, candidate := range candidates {
			if normalized, ok := normalizeClientID(candidate); ok {
				clientID = normalized
				break
			}
		}
		if clientID == "" {
			clientID = uuid.NewString()
			context.SetSameSite(http.SameSiteLaxMode)
			context.SetCookie(ClientCookie, clientID, 0, clientCookiePath, "", context.Request.TLS != nil, true)
		}

		context.Set(contextKeyClientID, clientID)
		context.Next()
	}
}

// ClientIDFromContext returns the client resolved by ClientIdentity.
func ClientIDFromContext(context *gin.Context) string {
	return context.GetString(contextKeyClientID)
}

func normalizeClientID(rawValue string) (string, bool) {
	parsed, parseErr := uuid.Parse(strings.TrimSpace(rawValue))
	if parseErr != nil {
		return "", false
	}
	return parsed.String(), true
}
