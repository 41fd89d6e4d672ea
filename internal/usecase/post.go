package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/core/port"
)

const maxPostLength = 2000

// PostInput carries the editable fields of a post.
type PostInput struct {
	Content  string
	ImageURL string
	Type     string
	Category string
	Pincode  string
}

// PostPage is one page of a post listing.
type PostPage struct {
	Posts []domain.Post
	Total int
	Page  int
	Size  int
}

// PostService implements the board's post operations and their ownership rules.
type PostService struct {
	posts port.PostRepository
}

func NewPostService(posts port.PostRepository) *PostService {
	return &PostService{posts: posts}
}

// List returns a filtered page of posts, newest first.
func (s *PostService) List(ctx context.Context, filter domain.PostFilter) (*PostPage, error) {
	filter = filter.Normalize()
	posts, total, err := s.posts.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return &PostPage{Posts: posts, Total: total, Page: filter.Page, Size: filter.Size}, nil
}

// ListByUser returns a page of posts authored by userID.
func (s *PostService) ListByUser(ctx context.Context, userID int64, page, size int) (*PostPage, error) {
	return s.List(ctx, domain.PostFilter{UserID: userID, Page: page, Size: size})
}

func (s *PostService) Get(ctx context.Context, id int64) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return post, nil
}

// Create publishes a new open post owned by the caller. Pincode defaults to the caller's.
func (s *PostService) Create(ctx context.Context, principal *domain.Principal, input PostInput) (*domain.Post, error) {
	if principal == nil {
		return nil, ErrMissingToken
	}

	post, err := applyPostInput(domain.Post{}, input)
	if err != nil {
		return nil, err
	}
	post.UserID = principal.UserID
	post.Username = principal.Username
	post.Status = domain.PostStatusOpen

	id, err := s.posts.Create(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return s.Get(ctx, id)
}

// Update edits a post's content. Only the author may do so.
func (s *PostService) Update(ctx context.Context, principal *domain.Principal, id int64, input PostInput) (*domain.Post, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanEditOwned(principal, current.UserID) {
		return nil, ErrForbidden
	}

	updated, err := applyPostInput(*current, input)
	if err != nil {
		return nil, err
	}
	if err := s.posts.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("update post %d: %w", id, err)
	}
	return s.Get(ctx, id)
}

// UpdateStatus moves a post through its lifecycle. The author or an admin may do so.
func (s *PostService) UpdateStatus(ctx context.Context, principal *domain.Principal, id int64, rawStatus string) (*domain.Post, error) {
	status, ok := domain.ParsePostStatus(rawStatus)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, rawStatus)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanModifyOwned(principal, current.UserID) {
		return nil, ErrForbidden
	}

	if err := s.posts.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update post %d status: %w", id, err)
	}
	return s.Get(ctx, id)
}

// Delete removes a post. The author or an admin may do so.
func (s *PostService) Delete(ctx context.Context, principal *domain.Principal, id int64) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanModifyOwned(principal, current.UserID) {
		return ErrForbidden
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	return nil
}

func applyPostInput(post domain.Post, input PostInput) (domain.Post, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return post, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if len([]rune(content)) > maxPostLength {
		return post, fmt.Errorf("%w: content must be at most %d characters", ErrInvalidInput, maxPostLength)
	}

	postType, ok := domain.ParsePostType(input.Type)
	if !ok {
		return post, fmt.Errorf("%w: type must be PROBLEM or SOLUTION", ErrInvalidInput)
	}

	category := domain.PostCategoryGeneral
	if strings.TrimSpace(input.Category) != "" {
		parsed, ok := domain.ParsePostCategory(input.Category)
		if !ok {
			return post, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, input.Category)
		}
		category = parsed
	}

	pincode := strings.TrimSpace(input.Pincode)
	if pincode == "" {
		return post, fmt.Errorf("%w: pincode is required", ErrInvalidInput)
	}

	post.Content = content
	post.ImageURL = strings.TrimSpace(input.ImageURL)
	post.Type = postType
	post.Category = category
	post.Pincode = pincode
	return post, nil
}
