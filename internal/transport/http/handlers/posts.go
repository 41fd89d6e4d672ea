package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/transport/http/middleware"
	"github.com/localsolutions/board-api/internal/usecase"
)

// PostHandler exposes the board's post endpoints.
type PostHandler struct {
	posts    *usecase.PostService
	comments *usecase.CommentService
}

func NewPostHandler(posts *usecase.PostService, comments *usecase.CommentService) *PostHandler {
	return &PostHandler{posts: posts, comments: comments}
}

// RegisterRoutes binds post and comment routes. Public reads are decided by the
// access classifier, not here.
func (h *PostHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.list)
	r.POST("", h.create)
	r.GET("/category/:category", h.listByCategory)
	r.GET("/type/:type", h.listByType)
	r.GET("/status/:status", h.listByStatus)
	r.GET("/user/:userId", h.listByUser)
	r.GET("/:id", h.get)
	r.PUT("/:id", h.update)
	r.DELETE("/:id", h.delete)
	r.PUT("/:id/status", h.updateStatus)

	r.GET("/:id/comments", h.listComments)
	r.POST("/:id/comments", h.createComment)
	r.DELETE("/:id/comments/:commentId", h.deleteComment)
}

func (h *PostHandler) list(c *gin.Context) {
	filter, ok := parsePostFilter(c)
	if !ok {
		return
	}
	h.respondPage(c, filter)
}

func (h *PostHandler) listByCategory(c *gin.Context) {
	category, ok := domain.ParsePostCategory(c.Param("category"))
	if !ok {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown category"))
		return
	}
	filter, ok := parsePostFilter(c)
	if !ok {
		return
	}
	filter.Category = category
	h.respondPage(c, filter)
}

func (h *PostHandler) listByType(c *gin.Context) {
	postType, ok := domain.ParsePostType(c.Param("type"))
	if !ok {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown type"))
		return
	}
	filter, ok := parsePostFilter(c)
	if !ok {
		return
	}
	filter.Type = postType
	h.respondPage(c, filter)
}

func (h *PostHandler) listByStatus(c *gin.Context) {
	status, ok := domain.ParsePostStatus(c.Param("status"))
	if !ok {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown status"))
		return
	}
	filter, ok := parsePostFilter(c)
	if !ok {
		return
	}
	filter.Status = status
	h.respondPage(c, filter)
}

func (h *PostHandler) listByUser(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}
	filter, ok := parsePostFilter(c)
	if !ok {
		return
	}
	page, err := h.posts.ListByUser(c.Request.Context(), userID, filter.Page, filter.Size)
	h.writePage(c, page, err)
}

func (h *PostHandler) respondPage(c *gin.Context, filter domain.PostFilter) {
	page, err := h.posts.List(c.Request.Context(), filter)
	h.writePage(c, page, err)
}

func (h *PostHandler) writePage(c *gin.Context, page *usecase.PostPage, err error) {
	if err != nil {
		RespondWithMappedError(c, err, resourceErrorCases, http.StatusInternalServerError, "failed to list posts")
		return
	}
	c.JSON(http.StatusOK, newPostPageResponse(page))
}

func (h *PostHandler) get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	post, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		RespondWithMappedError(c, err, resourceErrorCases, http.StatusInternalServerError, "failed to load post")
		return
	}
	c.JSON(http.StatusOK, newPostResponse(*post))
}

func (h *PostHandler) create(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid post payload"))
		return
	}
	post, err := h.posts.Create(c.Request.Context(), principal, req.toInput())
	if err != nil {
		RespondWithMappedError(c, err, resourceErrorCases, http.StatusInternalServerError, "failed to create post")
		return
	}
	c.JSON(http.StatusCreated, newPostResponse(*post))
}

func (h *PostHandler) update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(c)
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid post payload"))
		return
	}
	post, err := h.posts.Update(c.Request.Context(), principal, id, req.toInput())
	if err != nil {
		RespondWithMappedError(c, err, resourceErrorCases, http.StatusInternalServerError, "failed to update post")
		return
	}
	c.JSON(http.StatusOK, newPostResponse(*post))
}

func (h *PostHandler) updateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(c)
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid status payload"))
		return
	}
	post, err := h.posts.UpdateStatus(c.Request.Context(), principal, id, req.Status)
	if err != nil {
		RespondWithMappedError(c, err, resourceErrorCases, http.StatusInternalServerError, "failed to update post status")
		return
	}
	c.JSON(http.StatusOK, newPostResponse(*post))
}

func (h *PostHandler) delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(c)
	if err := h.posts.Delete(c.Request.Context(), principal, id); err != nil {
		RespondWithMappedError(c, err, resourceErrorCases, http.StatusInternalServerError, "failed to delete post")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PostHandler) listComments(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}
	comments, err := h.comments.List(c.Request.Context(), postID)
	if err != nil {
		RespondWithMappedError(c, err, resourceErrorCases, http.StatusInternalServerError, "failed to list comments")
		return
	}
	resp := make([]CommentResponse, 0, len(comments))
	for _, comment := range comments {
		resp = append(resp, newCommentResponse(comment))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PostHandler) createComment(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(c)
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid comment payload"))
		return
	}
	comment, err := h.comments.Create(c.Request.Context(), principal, postID, req.Content)
	if err != nil {
		RespondWithMappedError(c, err, resourceErrorCases, http.StatusInternalServerError, "failed to create comment")
		return
	}
	c.JSON(http.StatusCreated, newCommentResponse(*comment))
}

func (h *PostHandler) deleteComment(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}
	commentID, ok := parseID(c, "commentId")
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(c)
	if err := h.comments.Delete(c.Request.Context(), principal, postID, commentID); err != nil {
		RespondWithMappedError(c, err, resourceErrorCases, http.StatusInternalServerError, "failed to delete comment")
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid "+param))
		return 0, false
	}
	return id, true
}

// parsePage reads the zero-based page and size query parameters.
func parsePage(c *gin.Context) (domain.PageRequest, bool) {
	var page domain.PageRequest
	for param, dst := range map[string]*int{"page": &page.Page, "size": &page.Size} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid "+param))
			return page, false
		}
		*dst = n
	}
	return page.Normalize(), true
}

// parsePostFilter reads pagination and the optional equality filters from the query string.
func parsePostFilter(c *gin.Context) (domain.PostFilter, bool) {
	var filter domain.PostFilter

	page, ok := parsePage(c)
	if !ok {
		return filter, false
	}
	filter.Page, filter.Size = page.Page, page.Size

	if raw := c.Query("category"); raw != "" {
		category, ok := domain.ParsePostCategory(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown category"))
			return filter, false
		}
		filter.Category = category
	}
	if raw := c.Query("type"); raw != "" {
		postType, ok := domain.ParsePostType(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown type"))
			return filter, false
		}
		filter.Type = postType
	}
	if raw := c.Query("status"); raw != "" {
		status, ok := domain.ParsePostStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown status"))
			return filter, false
		}
		filter.Status = status
	}
	filter.Pincode = c.Query("pincode")

	return filter.Normalize(), true
}
