package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/core/port"
	"github.com/localsolutions/board-api/internal/repository"
)

// CommentRepository implements port.CommentRepository using PostgreSQL.
type CommentRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

func NewCommentRepository(exec pgExecutor) *CommentRepository {
	return &CommentRepository{exec: exec, builder: newBuilder()}
}

// ListByPost returns the comments on a post in posting order.
func (r *CommentRepository) ListByPost(ctx context.Context, postID int64) ([]domain.Comment, error) {
	stmt, args, err := r.selectComments().
		Where(squirrel.Eq{"c.post_id": postID}).
		OrderBy("c.created_at ASC", "c.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list comments sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	stmt, args, err := r.selectComments().Where(squirrel.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select comment sql: %w", err)
	}

	comment, err := scanComment(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan comment: %w", err)
	}
	return comment, nil
}

func (r *CommentRepository) Create(ctx context.Context, comment domain.Comment) (int64, error) {
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	stmt, args, err := r.builder.Insert("board.comments").
		Columns("post_id", "user_id", "content", "created_at").
		Values(comment.PostID, comment.UserID, comment.Content, comment.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert comment sql: %w", err)
	}

	var id int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&id); err != nil {
		return 0, translateWriteError("insert comment", err)
	}
	return id, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	stmt, args, err := r.builder.Delete("board.comments").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete comment sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *CommentRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.exec, r.builder.Select("COUNT(*)").From("board.comments"), "comments")
}

func (r *CommentRepository) selectComments() squirrel.SelectBuilder {
	return r.builder.Select("c.id", "c.post_id", "c.user_id", "u.username", "c.content", "c.created_at").
		From("board.comments c").
		Join("board.users u ON u.id = c.user_id")
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var comment domain.Comment
	if err := row.Scan(
		&comment.ID,
		&comment.PostID,
		&comment.UserID,
		&comment.Username,
		&comment.Content,
		&comment.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &comment, nil
}

var _ port.CommentRepository = (*CommentRepository)(nil)
