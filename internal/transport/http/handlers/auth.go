package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/localsolutions/board-api/internal/transport/http/middleware"
	"github.com/localsolutions/board-api/internal/usecase"
)

// AuthHandler exposes authentication endpoints. The /api/auth prefix is public,
// so endpoints that need a caller authenticate the bearer token themselves.
type AuthHandler struct {
	auth     *usecase.AuthService
	sessions *usecase.SessionService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, sessions *usecase.SessionService) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions}
}

// RegisterRoutes binds authentication routes, applying optional middleware ahead of login.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, loginMiddlewares ...gin.HandlerFunc) {
	r.POST("/register", h.register)

	chain := append([]gin.HandlerFunc{}, loginMiddlewares...)
	r.POST("/login", append(chain, h.login)...)

	r.POST("/logout", h.logout)
	r.GET("/me", h.me)
	r.GET("/check-username", h.checkUsername)
	r.GET("/check-email", h.checkEmail)
	r.GET("/check-mobile", h.checkMobile)
}

func (h *AuthHandler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, bindingMessage(err, "invalid registration payload")))
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.toInput())
	if err != nil {
		RespondWithMappedError(c, err, registrationErrorCases, http.StatusInternalServerError, "failed to register user")
		return
	}

	c.JSON(http.StatusCreated, newUserResponse(user))
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, loginErrorCases, http.StatusInternalServerError, "login failed")
		return
	}

	c.JSON(http.StatusOK, newLoginResponse(result))
}

func (h *AuthHandler) logout(c *gin.Context) {
	token, ok := middleware.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, usecase.ErrNothingToRevoke.Error()))
		return
	}

	if err := h.sessions.Logout(c.Request.Context(), token); err != nil {
		if errors.Is(err, usecase.ErrNothingToRevoke) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, usecase.ErrNothingToRevoke.Error()))
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "logout failed"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) me(c *gin.Context) {
	token, _ := middleware.BearerToken(c.GetHeader("Authorization"))
	principal, err := h.sessions.Authenticate(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, usecase.RejectionReason(err)))
		return
	}
	middleware.SetPrincipal(c, principal)

	user, err := h.auth.CurrentUser(c.Request.Context(), principal)
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownSubject) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "user not found"))
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load user"))
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

func (h *AuthHandler) checkUsername(c *gin.Context) {
	h.respondExists(c, "username", h.auth.UsernameExists)
}

func (h *AuthHandler) checkEmail(c *gin.Context) {
	h.respondExists(c, "email", h.auth.EmailExists)
}

func (h *AuthHandler) checkMobile(c *gin.Context) {
	h.respondExists(c, "mobileNumber", h.auth.MobileExists)
}

func (h *AuthHandler) respondExists(c *gin.Context, param string, lookup func(ctx context.Context, value string) (bool, error)) {
	value := c.Query(param)
	if value == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, param+" is required"))
		return
	}

	exists, err := lookup(c.Request.Context(), value)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "lookup failed"))
		return
	}
	c.JSON(http.StatusOK, ExistsResponse{Exists: exists})
}
