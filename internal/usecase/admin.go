package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/core/port"
)

// UserPage is one page of the account listing.
type UserPage struct {
	Users []domain.User
	Total int
	Page  int
	Size  int
}

// AdminService implements board moderation: totals, account management and post removal.
// Mutations require an admin principal.
type AdminService struct {
	users    port.UserRepository
	posts    port.PostRepository
	comments port.CommentRepository
	logger   *zap.Logger
}

func NewAdminService(users port.UserRepository, posts port.PostRepository, comments port.CommentRepository, log *zap.Logger) *AdminService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminService{users: users, posts: posts, comments: comments, logger: log}
}

func (s *AdminService) Dashboard(ctx context.Context) (*domain.BoardStats, error) {
	var (
		stats domain.BoardStats
		err   error
	)
	if stats.Users, err = s.users.Count(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if stats.Customers, err = s.users.CountByRole(ctx, domain.RoleCustomer); err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}
	if stats.BusinessOwners, err = s.users.CountByRole(ctx, domain.RoleBusinessOwner); err != nil {
		return nil, fmt.Errorf("count business owners: %w", err)
	}
	if stats.Posts, err = s.posts.Count(ctx); err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	if stats.OpenPosts, err = s.posts.CountByStatus(ctx, domain.PostStatusOpen); err != nil {
		return nil, fmt.Errorf("count open posts: %w", err)
	}
	if stats.ResolvedPosts, err = s.posts.CountByStatus(ctx, domain.PostStatusResolved); err != nil {
		return nil, fmt.Errorf("count resolved posts: %w", err)
	}
	if stats.Comments, err = s.comments.Count(ctx); err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}
	return &stats, nil
}

// ListUsers returns one page of accounts ordered by id.
func (s *AdminService) ListUsers(ctx context.Context, page domain.PageRequest) (*UserPage, error) {
	page = page.Normalize()
	users, total, err := s.users.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return &UserPage{Users: users, Total: total, Page: page.Page, Size: page.Size}, nil
}

// UsersByRole lists every account holding the named role.
func (s *AdminService) UsersByRole(ctx context.Context, rawRole string) ([]domain.User, error) {
	role, ok := domain.LookupRole(rawRole)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, rawRole)
	}
	users, err := s.users.Find(ctx, domain.UserQuery{Role: role})
	if err != nil {
		return nil, fmt.Errorf("find users by role: %w", err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// UpdateUserRole assigns a role. The auth gate re-resolves the role on every
// request, so the change applies to the account's existing tokens immediately.
// Admins cannot change their own role.
func (s *AdminService) UpdateUserRole(ctx context.Context, principal *domain.Principal, id int64, rawRole string) (*domain.User, error) {
	if !domain.IsAdmin(principal) {
		return nil, ErrForbidden
	}
	role, ok := domain.LookupRole(rawRole)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, rawRole)
	}
	if principal.UserID == id {
		return nil, fmt.Errorf("%w: admins cannot change their own role", ErrInvalidInput)
	}

	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		return nil, fmt.Errorf("update user %d role: %w", id, err)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	s.logger.Info("user role changed",
		zap.Int64("user_id", id),
		zap.String("role", string(role)),
		zap.String("changed_by", principal.Username),
	)
	user.PasswordHash = ""
	return user, nil
}

// DeleteUser removes an account along with its posts, comments and likes.
func (s *AdminService) DeleteUser(ctx context.Context, principal *domain.Principal, id int64) error {
	if !domain.IsAdmin(principal) {
		return ErrForbidden
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	s.logger.Info("user deleted", zap.Int64("user_id", id), zap.String("deleted_by", principal.Username))
	return nil
}

// ListPosts returns every post, newest first, without filters.
func (s *AdminService) ListPosts(ctx context.Context, page domain.PageRequest) (*PostPage, error) {
	page = page.Normalize()
	posts, total, err := s.posts.List(ctx, domain.PostFilter{Page: page.Page, Size: page.Size})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return &PostPage{Posts: posts, Total: total, Page: page.Page, Size: page.Size}, nil
}

func (s *AdminService) DeletePost(ctx context.Context, principal *domain.Principal, id int64) error {
	if !domain.IsAdmin(principal) {
		return ErrForbidden
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	s.logger.Info("post removed by admin", zap.Int64("post_id", id), zap.String("deleted_by", principal.Username))
	return nil
}
