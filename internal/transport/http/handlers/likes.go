package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/transport/http/middleware"
	"github.com/localsolutions/board-api/internal/usecase"
)

// LikeHandler serves /api/posts/:id/likes. Repeating a like or unlike is not an error.
type LikeHandler struct {
	likes *usecase.LikeService
	posts *usecase.PostService
}

func NewLikeHandler(likes *usecase.LikeService, posts *usecase.PostService) *LikeHandler {
	return &LikeHandler{likes: likes, posts: posts}
}

// RegisterRoutes binds the like routes onto the posts group.
func (h *LikeHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/:id/likes", h.status)
	r.POST("/:id/likes", h.like)
	r.DELETE("/:id/likes", h.unlike)
}

type likeAction func(ctx context.Context, principal *domain.Principal, postID int64) (*usecase.LikeResult, error)

func (h *LikeHandler) like(c *gin.Context) {
	h.apply(c, h.likes.Like, "failed to like post")
}

func (h *LikeHandler) unlike(c *gin.Context) {
	h.apply(c, h.likes.Unlike, "failed to unlike post")
}

func (h *LikeHandler) apply(c *gin.Context, action likeAction, failure string) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(c)
	result, err := action(c.Request.Context(), principal, postID)
	if err != nil {
		RespondWithMappedError(c, err, resourceErrorCases, http.StatusInternalServerError, failure)
		return
	}
	c.JSON(http.StatusOK, LikeResponse{
		PostID:    result.Post.ID,
		Liked:     result.Liked,
		LikeCount: result.Post.LikeCount,
	})
}

func (h *LikeHandler) status(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(c)
	ctx := c.Request.Context()

	post, err := h.posts.Get(ctx, postID)
	if err != nil {
		RespondWithMappedError(c, err, resourceErrorCases, http.StatusInternalServerError, "failed to load post")
		return
	}
	liked, err := h.likes.HasLiked(ctx, principal, postID)
	if err != nil {
		RespondWithMappedError(c, err, resourceErrorCases, http.StatusInternalServerError, "failed to load like state")
		return
	}
	c.JSON(http.StatusOK, LikeResponse{PostID: post.ID, Liked: liked, LikeCount: post.LikeCount})
}
