package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/core/port"
	"github.com/localsolutions/board-api/internal/infra/logger"
	"github.com/localsolutions/board-api/internal/repository"
)

// RegisterInput carries the fields accepted at sign-up.
type RegisterInput struct {
	Username         string
	Email            string
	Password         string
	FullName         string
	MobileNumber     string
	Pincode          string
	Role             string
	ShopName         string
	BusinessCategory string
	ServiceArea      string
	OffersOnDemand   bool
}

// LoginResult pairs an issued token with the account it was issued for.
type LoginResult struct {
	Session IssuedToken
	User    domain.User
}

// AuthService handles registration, credential login and account lookups.
type AuthService struct {
	users    port.UserRepository
	hasher   port.PasswordHasher
	sessions *SessionService
	logger   *zap.Logger
}

func NewAuthService(users port.UserRepository, hasher port.PasswordHasher, sessions *SessionService, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, hasher: hasher, sessions: sessions, logger: log}
}

// Register validates the input, enforces uniqueness and stores the account.
// Self-registration as ADMIN is rejected.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	user, err := normalizeRegistration(input)
	if err != nil {
		return nil, err
	}

	if taken, err := s.users.ExistsByUsername(ctx, user.Username); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	} else if taken {
		return nil, ErrUsernameTaken
	}
	if taken, err := s.users.ExistsByEmail(ctx, user.Email); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if taken {
		return nil, ErrEmailTaken
	}
	if user.MobileNumber != "" {
		if taken, err := s.users.ExistsByMobileNumber(ctx, user.MobileNumber); err != nil {
			return nil, fmt.Errorf("check mobile number: %w", err)
		} else if taken {
			return nil, ErrMobileTaken
		}
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash

	id, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Lost a race with a concurrent registration.
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.ID = id
	user.PasswordHash = ""

	logger.WithContext(ctx).Info("user registered",
		zap.Int64("user_id", id),
		zap.String("email", logger.MaskEmail(user.Email)),
		zap.String("role", string(user.Role)),
	)
	return &user, nil
}

// Login accepts an email or a username as identifier. Unknown accounts and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.resolveAccount(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		logger.WithContext(ctx).Warn("stored password hash unreadable", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	session, err := s.sessions.Issue(ctx, user.Identity())
	if err != nil {
		return nil, err
	}

	sanitized := *user
	sanitized.PasswordHash = ""
	return &LoginResult{Session: session, User: sanitized}, nil
}

// CurrentUser returns the account behind an authenticated principal.
func (s *AuthService) CurrentUser(ctx context.Context, principal *domain.Principal) (*domain.User, error) {
	if principal == nil {
		return nil, ErrMissingToken
	}
	user, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownSubject
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *AuthService) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.users.ExistsByUsername(ctx, strings.TrimSpace(username))
}

func (s *AuthService) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.users.ExistsByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *AuthService) MobileExists(ctx context.Context, mobile string) (bool, error) {
	return s.users.ExistsByMobileNumber(ctx, strings.TrimSpace(mobile))
}

func (s *AuthService) resolveAccount(ctx context.Context, identifier string) (*domain.User, error) {
	if strings.Contains(identifier, "@") {
		user, err := s.users.GetByEmail(ctx, strings.ToLower(identifier))
		if err == nil || !errors.Is(err, repository.ErrNotFound) {
			return user, err
		}
	}
	return s.users.GetByUsername(ctx, identifier)
}

// normalizeRegistration applies the rules the request binding cannot express.
// Field presence, lengths and email syntax are enforced by RegisterRequest's binding tags.
func normalizeRegistration(input RegisterInput) (domain.User, error) {
	username := input.Username
	if username == "" || strings.ContainsFunc(username, unicode.IsSpace) || strings.Contains(username, "@") {
		return domain.User{}, fmt.Errorf("%w: username must not contain spaces or @", ErrInvalidInput)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return domain.User{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	if input.Password == "" {
		return domain.User{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return domain.User{}, fmt.Errorf("%w: full name is required", ErrInvalidInput)
	}

	var role domain.Role
	switch domain.Role(strings.ToUpper(strings.TrimSpace(input.Role))) {
	case "", domain.RoleCustomer:
		role = domain.RoleCustomer
	case domain.RoleBusinessOwner:
		role = domain.RoleBusinessOwner
	default:
		return domain.User{}, fmt.Errorf("%w: role must be CUSTOMER or BUSINESS_OWNER", ErrInvalidInput)
	}

	return domain.User{
		Username:         username,
		Email:            email,
		FullName:         fullName,
		MobileNumber:     strings.TrimSpace(input.MobileNumber),
		Pincode:          strings.TrimSpace(input.Pincode),
		Role:             role,
		ShopName:         strings.TrimSpace(input.ShopName),
		BusinessCategory: strings.TrimSpace(input.BusinessCategory),
		ServiceArea:      strings.TrimSpace(input.ServiceArea),

		OffersOnDemandProducts: role == domain.RoleBusinessOwner && input.OffersOnDemand,
	}, nil
}
