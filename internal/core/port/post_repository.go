package port

import (
	"context"

	"github.com/localsolutions/board-api/internal/core/domain"
)

// PostRepository exposes persistence behavior for posts.
type PostRepository interface {
	List(ctx context.Context, filter domain.PostFilter) ([]domain.Post, int, error)
	GetByID(ctx context.Context, id int64) (*domain.Post, error)
	Create(ctx context.Context, post domain.Post) (int64, error)
	Update(ctx context.Context, post domain.Post) error
	UpdateStatus(ctx context.Context, id int64, status domain.PostStatus) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status domain.PostStatus) (int, error)
}

// LikeRepository records which users liked which posts. Like and Unlike report
// whether they changed anything, so repeating either is harmless.
type LikeRepository interface {
	Like(ctx context.Context, postID, userID int64) (bool, error)
	Unlike(ctx context.Context, postID, userID int64) (bool, error)
	HasLiked(ctx context.Context, postID, userID int64) (bool, error)
}

// CommentRepository exposes persistence behavior for post comments.
type CommentRepository interface {
	ListByPost(ctx context.Context, postID int64) ([]domain.Comment, error)
	GetByID(ctx context.Context, id int64) (*domain.Comment, error)
	Create(ctx context.Context, comment domain.Comment) (int64, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}
