package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/localsolutions/board-api/internal/transport/http/middleware"
	"github.com/localsolutions/board-api/internal/usecase"
)

// AdminHandler exposes administrator-only endpoints. Role checks happen in the route group.
type AdminHandler struct {
	admin *usecase.AdminService
}

func NewAdminHandler(admin *usecase.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard", h.dashboard)

	r.GET("/users", h.listUsers)
	r.GET("/users/:role", h.usersByRole)
	r.PUT("/users/:id/role", h.updateRole)
	r.DELETE("/users/:id", h.deleteUser)

	r.GET("/posts", h.listPosts)
	r.DELETE("/posts/:id", h.deletePost)
}

func (h *AdminHandler) dashboard(c *gin.Context) {
	stats, err := h.admin.Dashboard(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load dashboard"))
		return
	}
	c.JSON(http.StatusOK, DashboardResponse{
		TotalUsers:          stats.Users,
		TotalCustomers:      stats.Customers,
		TotalBusinessOwners: stats.BusinessOwners,
		TotalPosts:          stats.Posts,
		TotalOpenPosts:      stats.OpenPosts,
		TotalResolvedPosts:  stats.ResolvedPosts,
		TotalComments:       stats.Comments,
	})
}

func (h *AdminHandler) listUsers(c *gin.Context) {
	req, ok := parsePage(c)
	if !ok {
		return
	}
	page, err := h.admin.ListUsers(c.Request.Context(), req)
	if err != nil {
		RespondWithMappedError(c, err, resourceErrorCases, http.StatusInternalServerError, "failed to list users")
		return
	}
	c.JSON(http.StatusOK, newUserPageResponse(page))
}

func (h *AdminHandler) usersByRole(c *gin.Context) {
	users, err := h.admin.UsersByRole(c.Request.Context(), c.Param("role"))
	if err != nil {
		RespondWithMappedError(c, err, resourceErrorCases, http.StatusInternalServerError, "failed to list users")
		return
	}
	c.JSON(http.StatusOK, newUserResponses(users))
}

func (h *AdminHandler) updateRole(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, bindingMessage(err, "invalid role payload")))
		return
	}
	principal, _ := middleware.GetPrincipal(c)
	user, err := h.admin.UpdateUserRole(c.Request.Context(), principal, id, req.Role)
	if err != nil {
		RespondWithMappedError(c, err, resourceErrorCases, http.StatusInternalServerError, "failed to update role")
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (h *AdminHandler) deleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(c)
	if err := h.admin.DeleteUser(c.Request.Context(), principal, id); err != nil {
		RespondWithMappedError(c, err, resourceErrorCases, http.StatusInternalServerError, "failed to delete user")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) listPosts(c *gin.Context) {
	req, ok := parsePage(c)
	if !ok {
		return
	}
	page, err := h.admin.ListPosts(c.Request.Context(), req)
	if err != nil {
		RespondWithMappedError(c, err, resourceErrorCases, http.StatusInternalServerError, "failed to list posts")
		return
	}
	c.JSON(http.StatusOK, newPostPageResponse(page))
}

func (h *AdminHandler) deletePost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(c)
	if err := h.admin.DeletePost(c.Request.Context(), principal, id); err != nil {
		RespondWithMappedError(c, err, resourceErrorCases, http.StatusInternalServerError, "failed to delete post")
		return
	}
	c.Status(http.StatusNoContent)
}
