package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/core/port"
	"github.com/localsolutions/board-api/internal/repository"
)

const maxCommentLength = 1000

// CommentService manages replies on posts.
type CommentService struct {
	posts    port.PostRepository
	comments port.CommentRepository
}

func NewCommentService(posts port.PostRepository, comments port.CommentRepository) *CommentService {
	return &CommentService{posts: posts, comments: comments}
}

// List returns a post's comments in creation order.
func (s *CommentService) List(ctx context.Context, postID int64) ([]domain.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, fmt.Errorf("get post %d: %w", postID, err)
	}
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *CommentService) Create(ctx context.Context, principal *domain.Principal, postID int64, content string) (*domain.Comment, error) {
	if principal == nil {
		return nil, ErrMissingToken
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if len([]rune(content)) > maxCommentLength {
		return nil, fmt.Errorf("%w: content must be at most %d characters", ErrInvalidInput, maxCommentLength)
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, fmt.Errorf("get post %d: %w", postID, err)
	}

	id, err := s.comments.Create(ctx, domain.Comment{
		PostID:   postID,
		UserID:   principal.UserID,
		Username: principal.Username,
		Content:  content,
	})
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get comment %d: %w", id, err)
	}
	return comment, nil
}

// Delete removes a comment. The comment author or an admin may do so, and the
// comment must belong to postID.
func (s *CommentService) Delete(ctx context.Context, principal *domain.Principal, postID, commentID int64) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return fmt.Errorf("get comment %d: %w", commentID, err)
	}
	if comment.PostID != postID {
		return fmt.Errorf("comment %d on post %d: %w", commentID, postID, repository.ErrNotFound)
	}
	if !domain.CanModifyOwned(principal, comment.UserID) {
		return ErrForbidden
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return fmt.Errorf("delete comment %d: %w", commentID, err)
	}
	return nil
}
