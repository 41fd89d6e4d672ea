package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/localsolutions/board-api/internal/core/port"
)

// LikeRepository implements port.LikeRepository using PostgreSQL. A post's
// like count is derived from board.post_likes when posts are selected.
type LikeRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

func NewLikeRepository(exec pgExecutor) *LikeRepository {
	return &LikeRepository{exec: exec, builder: newBuilder()}
}

// Like records the user's like. It reports false when the like already existed.
func (r *LikeRepository) Like(ctx context.Context, postID, userID int64) (bool, error) {
	stmt, args, err := r.builder.Insert("board.post_likes").
		Columns("post_id", "user_id", "created_at").
		Values(postID, userID, time.Now().UTC()).
		Suffix("ON CONFLICT (post_id, user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert like sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return false, translateWriteError("insert like", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Unlike removes the user's like. It reports false when there was nothing to remove.
func (r *LikeRepository) Unlike(ctx context.Context, postID, userID int64) (bool, error) {
	stmt, args, err := r.builder.Delete("board.post_likes").
		Where(squirrel.Eq{"post_id": postID, "user_id": userID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete like sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *LikeRepository) HasLiked(ctx context.Context, postID, userID int64) (bool, error) {
	stmt, args, err := r.builder.Select("COUNT(1) > 0").
		From("board.post_likes").
		Where(squirrel.Eq{"post_id": postID, "user_id": userID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build like exists sql: %w", err)
	}

	var liked bool
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&liked); err != nil {
		return false, fmt.Errorf("scan like exists: %w", err)
	}
	return liked, nil
}

var _ port.LikeRepository = (*LikeRepository)(nil)
