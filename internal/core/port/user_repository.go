package port

import (
	"context"

	"github.com/localsolutions/board-api/internal/core/domain"
)

// IdentityDirectory resolves a token subject (username) to the identity it stands for.
// A missing subject is reported as repository.ErrNotFound.
type IdentityDirectory interface {
	LookupIdentity(ctx context.Context, username string) (*domain.Identity, error)
}

// UserRepository exposes persistence behavior for users.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByMobileNumber(ctx context.Context, mobile string) (bool, error)
	Count(ctx context.Context) (int, error)
	CountByRole(ctx context.Context, role domain.Role) (int, error)
	// List returns one page of users ordered by id plus the total user count.
	List(ctx context.Context, page domain.PageRequest) ([]domain.User, int, error)
	Find(ctx context.Context, query domain.UserQuery) ([]domain.User, error)
	// UpdateProfile rewrites the editable profile fields; credentials, role and username are untouched.
	UpdateProfile(ctx context.Context, user domain.User) error
	UpdateRole(ctx context.Context, id int64, role domain.Role) error
	Delete(ctx context.Context, id int64) error
}
