package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/infra/logger"
	"github.com/localsolutions/board-api/internal/infra/telemetry"
	"github.com/localsolutions/board-api/internal/usecase"
)

// PrincipalKey is the gin context key holding the authenticated *domain.Principal.
const PrincipalKey = "principal"

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// newErrorResponse creates an error response with trace ID
func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// Authenticator resolves bearer tokens to principals.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}

// DecisionObserver records auth gate outcomes.
type DecisionObserver interface {
	ObserveAuthDecision(outcome, reason string)
}

// Authenticate is the global auth gate. Requests the classifier marks public pass
// through untouched, even when they carry a token. Everything else must present a
// valid bearer token or is rejected with 401 and a stable reason string.
func Authenticate(classifier *AccessClassifier, sessions Authenticator, metrics DecisionObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := classifier.Classify(c.Request.Method, c.Request.URL.Path)
		if decision.Public() {
			if metrics != nil {
				metrics.ObserveAuthDecision(telemetry.OutcomeSkipped, "")
			}
			c.Next()
			return
		}

		token, _ := BearerToken(c.GetHeader("Authorization"))
		principal, err := sessions.Authenticate(c.Request.Context(), token)
		if err != nil {
			reason := usecase.RejectionReason(err)
			logger.WithContext(c.Request.Context()).Debug("request rejected by auth gate",
				zap.String("path", c.Request.URL.Path),
				zap.String("rule", decision.Rule),
				zap.String("reason", reason),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, reason))
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// SetPrincipal attaches the principal to both the gin and the request context.
func SetPrincipal(c *gin.Context, principal *domain.Principal) {
	c.Set(PrincipalKey, principal)
	c.Set(UserIDKey, principal.UserID)
	c.Request = c.Request.WithContext(domain.WithPrincipal(c.Request.Context(), principal))

	if reqCtx := GetRequestContext(c); reqCtx != nil {
		reqCtx.UserID = principal.UserID
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// RequireRole checks if the authenticated principal has any of the specified roles
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, usecase.ReasonMissingToken))
			return
		}

		if !principal.HasRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				newErrorResponse(c, "forbidden"))
			return
		}

		c.Next()
	}
}

// GetPrincipal retrieves the authenticated principal (helper for handlers)
func GetPrincipal(c *gin.Context) (*domain.Principal, bool) {
	value, exists := c.Get(PrincipalKey)
	if !exists {
		return nil, false
	}
	principal, ok := value.(*domain.Principal)
	return principal, ok && principal != nil
}
