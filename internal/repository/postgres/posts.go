package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/core/port"
	"github.com/localsolutions/board-api/internal/repository"
)

var postColumns = []string{
	"p.id",
	"p.user_id",
	"u.username",
	"p.content",
	"p.image_url",
	"p.post_type",
	"p.status",
	"p.category",
	"p.pincode",
	"(SELECT COUNT(*) FROM board.post_likes l WHERE l.post_id = p.id) AS like_count",
	"p.created_at",
	"p.updated_at",
	"p.solution_provided_at",
}

// PostRepository implements port.PostRepository using PostgreSQL.
type PostRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewPostRepository wires a PostgreSQL-backed post repository.
func NewPostRepository(exec pgExecutor) *PostRepository {
	return &PostRepository{exec: exec, builder: newBuilder()}
}

// List returns one page of posts matching the filter, newest first, plus the total match count.
func (r *PostRepository) List(ctx context.Context, filter domain.PostFilter) ([]domain.Post, int, error) {
	filter = filter.Normalize()
	where := postPredicates(filter)

	total, err := countRows(ctx, r.exec, r.builder.Select("COUNT(*)").From("board.posts p").Where(where), "posts")
	if err != nil {
		return nil, 0, err
	}

	stmt, args, err := r.selectPosts().
		Where(where).
		OrderBy("p.created_at DESC", "p.id DESC").
		Limit(uint64(filter.Size)).
		Offset(filter.Offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list posts sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]domain.Post, 0, filter.Size)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, total, nil
}

// GetByID retrieves a single post with its author's username.
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	stmt, args, err := r.selectPosts().Where(squirrel.Eq{"p.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select post sql: %w", err)
	}

	post, err := scanPost(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	return post, nil
}

// Create inserts a post and returns its generated identifier.
func (r *PostRepository) Create(ctx context.Context, post domain.Post) (int64, error) {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	if post.UpdatedAt.IsZero() {
		post.UpdatedAt = post.CreatedAt
	}

	stmt, args, err := r.builder.Insert("board.posts").
		Columns("user_id", "content", "image_url", "post_type", "status", "category", "pincode", "created_at", "updated_at").
		Values(
			post.UserID,
			post.Content,
			nullable(post.ImageURL),
			string(post.Type),
			string(post.Status),
			string(post.Category),
			post.Pincode,
			post.CreatedAt,
			post.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert post sql: %w", err)
	}

	var id int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&id); err != nil {
		return 0, translateWriteError("insert post", err)
	}
	return id, nil
}

// Update rewrites the editable fields of a post.
func (r *PostRepository) Update(ctx context.Context, post domain.Post) error {
	stmt, args, err := r.builder.Update("board.posts").
		Set("content", post.Content).
		Set("image_url", nullable(post.ImageURL)).
		Set("post_type", string(post.Type)).
		Set("category", string(post.Category)).
		Set("pincode", post.Pincode).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": post.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update post sql: %w", err)
	}
	return r.execAffectingOne(ctx, "update post", stmt, args)
}

// UpdateStatus moves a post through its lifecycle. Resolving stamps solution_provided_at.
func (r *PostRepository) UpdateStatus(ctx context.Context, id int64, status domain.PostStatus) error {
	now := time.Now().UTC()
	query := r.builder.Update("board.posts").
		Set("status", string(status)).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id})
	if status == domain.PostStatusResolved {
		query = query.Set("solution_provided_at", now)
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build update post status sql: %w", err)
	}
	return r.execAffectingOne(ctx, "update post status", stmt, args)
}

// Delete removes a post; comments and likes cascade.
func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	stmt, args, err := r.builder.Delete("board.posts").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete post sql: %w", err)
	}
	return r.execAffectingOne(ctx, "delete post", stmt, args)
}

// Count returns the total number of posts.
func (r *PostRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.exec, r.builder.Select("COUNT(*)").From("board.posts"), "posts")
}

// CountByStatus returns the number of posts in the given lifecycle state.
func (r *PostRepository) CountByStatus(ctx context.Context, status domain.PostStatus) (int, error) {
	return countRows(ctx, r.exec, r.builder.Select("COUNT(*)").From("board.posts").Where(squirrel.Eq{"status": string(status)}), "posts by status")
}

func (r *PostRepository) selectPosts() squirrel.SelectBuilder {
	return r.builder.Select(postColumns...).
		From("board.posts p").
		Join("board.users u ON u.id = p.user_id")
}

func (r *PostRepository) execAffectingOne(ctx context.Context, op, stmt string, args []any) error {
	return execAffectingOne(ctx, r.exec, op, stmt, args)
}

func postPredicates(filter domain.PostFilter) squirrel.And {
	where := squirrel.And{}
	if filter.UserID != 0 {
		where = append(where, squirrel.Eq{"p.user_id": filter.UserID})
	}
	if filter.Category != "" {
		where = append(where, squirrel.Eq{"p.category": string(filter.Category)})
	}
	if filter.Type != "" {
		where = append(where, squirrel.Eq{"p.post_type": string(filter.Type)})
	}
	if filter.Status != "" {
		where = append(where, squirrel.Eq{"p.status": string(filter.Status)})
	}
	if filter.Pincode != "" {
		where = append(where, squirrel.Eq{"p.pincode": filter.Pincode})
	}
	return where
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var (
		post       domain.Post
		imageURL   sql.NullString
		postType   string
		status     string
		category   string
		resolvedAt *time.Time
	)

	if err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.Username,
		&post.Content,
		&imageURL,
		&postType,
		&status,
		&category,
		&post.Pincode,
		&post.LikeCount,
		&post.CreatedAt,
		&post.UpdatedAt,
		&resolvedAt,
	); err != nil {
		return nil, err
	}

	post.ImageURL = imageURL.String
	post.Type = domain.PostType(postType)
	post.Status = domain.PostStatus(status)
	post.Category = domain.PostCategory(category)
	post.SolutionProvidedAt = resolvedAt
	return &post, nil
}

var _ port.PostRepository = (*PostRepository)(nil)
