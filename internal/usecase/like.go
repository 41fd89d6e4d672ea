package usecase

import (
	"context"
	"fmt"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/core/port"
)

// LikeResult is the post after a like or unlike, as seen by the caller.
type LikeResult struct {
	Post  *domain.Post
	Liked bool
}

// LikeService lets authenticated callers like and unlike posts. Both operations are idempotent.
type LikeService struct {
	posts port.PostRepository
	likes port.LikeRepository
}

func NewLikeService(posts port.PostRepository, likes port.LikeRepository) *LikeService {
	return &LikeService{posts: posts, likes: likes}
}

func (s *LikeService) Like(ctx context.Context, principal *domain.Principal, postID int64) (*LikeResult, error) {
	return s.toggle(ctx, principal, postID, true)
}

func (s *LikeService) Unlike(ctx context.Context, principal *domain.Principal, postID int64) (*LikeResult, error) {
	return s.toggle(ctx, principal, postID, false)
}

func (s *LikeService) toggle(ctx context.Context, principal *domain.Principal, postID int64, like bool) (*LikeResult, error) {
	if principal == nil {
		return nil, ErrMissingToken
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, fmt.Errorf("get post %d: %w", postID, err)
	}

	var err error
	if like {
		_, err = s.likes.Like(ctx, postID, principal.UserID)
	} else {
		_, err = s.likes.Unlike(ctx, postID, principal.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("update like on post %d: %w", postID, err)
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", postID, err)
	}
	return &LikeResult{Post: post, Liked: like}, nil
}

// HasLiked reports whether the caller likes the post.
func (s *LikeService) HasLiked(ctx context.Context, principal *domain.Principal, postID int64) (bool, error) {
	if principal == nil {
		return false, ErrMissingToken
	}
	liked, err := s.likes.HasLiked(ctx, postID, principal.UserID)
	if err != nil {
		return false, fmt.Errorf("check like on post %d: %w", postID, err)
	}
	return liked, nil
}
