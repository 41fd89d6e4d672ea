package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/transport/http/middleware"
	"github.com/localsolutions/board-api/internal/usecase"
)

var userErrorCases = append([]ErrorCase{
	{Err: usecase.ErrMobileTaken, Status: http.StatusConflict, Message: "mobile number already registered"},
}, resourceErrorCases...)

// UserHandler serves account records. Owner-or-admin checks live in the user service.
type UserHandler struct {
	users *usecase.UserService
	admin *usecase.AdminService
}

func NewUserHandler(users *usecase.UserService, admin *usecase.AdminService) *UserHandler {
	return &UserHandler{users: users, admin: admin}
}

func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	adminOnly := middleware.RequireRole(domain.RoleAdmin)
	r.GET("", adminOnly, h.list)
	r.GET("/role/:role", adminOnly, h.byRole)

	r.GET("/pincode/:pincode", h.byPincode)
	r.GET("/business/:category/:pincode", h.businessOwners)
	r.GET("/:id", h.get)
	r.PUT("/:id", h.update)
	r.DELETE("/:id", h.delete)
}

func (h *UserHandler) list(c *gin.Context) {
	req, ok := parsePage(c)
	if !ok {
		return
	}
	page, err := h.admin.ListUsers(c.Request.Context(), req)
	if err != nil {
		RespondWithMappedError(c, err, userErrorCases, http.StatusInternalServerError, "failed to list users")
		return
	}
	c.JSON(http.StatusOK, newUserPageResponse(page))
}

func (h *UserHandler) byRole(c *gin.Context) {
	users, err := h.admin.UsersByRole(c.Request.Context(), c.Param("role"))
	if err != nil {
		RespondWithMappedError(c, err, userErrorCases, http.StatusInternalServerError, "failed to list users")
		return
	}
	c.JSON(http.StatusOK, newUserResponses(users))
}

func (h *UserHandler) byPincode(c *gin.Context) {
	users, err := h.users.ByPincode(c.Request.Context(), c.Param("pincode"))
	if err != nil {
		RespondWithMappedError(c, err, userErrorCases, http.StatusInternalServerError, "failed to list users")
		return
	}
	c.JSON(http.StatusOK, newUserResponses(users))
}

func (h *UserHandler) businessOwners(c *gin.Context) {
	users, err := h.users.BusinessOwners(c.Request.Context(), c.Param("category"), c.Param("pincode"))
	if err != nil {
		RespondWithMappedError(c, err, userErrorCases, http.StatusInternalServerError, "failed to list business owners")
		return
	}
	c.JSON(http.StatusOK, newUserResponses(users))
}

func (h *UserHandler) get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(c)
	user, err := h.users.Get(c.Request.Context(), principal, id)
	if err != nil {
		RespondWithMappedError(c, err, userErrorCases, http.StatusInternalServerError, "failed to load user")
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (h *UserHandler) update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, bindingMessage(err, "invalid profile payload")))
		return
	}
	principal, _ := middleware.GetPrincipal(c)
	user, err := h.users.UpdateProfile(c.Request.Context(), principal, id, req.toInput())
	if err != nil {
		RespondWithMappedError(c, err, userErrorCases, http.StatusInternalServerError, "failed to update user")
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (h *UserHandler) delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(c)
	if err := h.users.Delete(c.Request.Context(), principal, id); err != nil {
		RespondWithMappedError(c, err, userErrorCases, http.StatusInternalServerError, "failed to delete user")
		return
	}
	c.Status(http.StatusNoContent)
}
