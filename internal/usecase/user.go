package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/core/port"
	"github.com/localsolutions/board-api/internal/repository"
)

// ProfileInput carries the fields an account holder may change. Username,
// email, password and role are not editable here.
type ProfileInput struct {
	FullName         string
	MobileNumber     string
	Pincode          string
	ShopName         string
	BusinessCategory string
	ServiceArea      string
	OffersOnDemand   bool
}

// UserService exposes account records to their owner and to administrators.
type UserService struct {
	users port.UserRepository
}

func NewUserService(users port.UserRepository) *UserService {
	return &UserService{users: users}
}

// Get returns the account. Only its owner or an admin may read it.
func (s *UserService) Get(ctx context.Context, principal *domain.Principal, id int64) (*domain.User, error) {
	if principal == nil {
		return nil, ErrMissingToken
	}
	if !domain.CanModifyOwned(principal, id) {
		return nil, ErrForbidden
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile edits the account's profile. Business fields are cleared unless the account is a business owner.
func (s *UserService) UpdateProfile(ctx context.Context, principal *domain.Principal, id int64, input ProfileInput) (*domain.User, error) {
	current, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, fmt.Errorf("%w: full name is required", ErrInvalidInput)
	}
	mobile := strings.TrimSpace(input.MobileNumber)
	if mobile != "" && mobile != current.MobileNumber {
		taken, err := s.users.ExistsByMobileNumber(ctx, mobile)
		if err != nil {
			return nil, fmt.Errorf("check mobile: %w", err)
		}
		if taken {
			return nil, ErrMobileTaken
		}
	}

	updated := *current
	updated.FullName = fullName
	updated.MobileNumber = mobile
	updated.Pincode = strings.TrimSpace(input.Pincode)
	updated.ShopName, updated.BusinessCategory, updated.ServiceArea = "", "", ""
	updated.OffersOnDemandProducts = false
	if updated.IsBusiness() {
		updated.ShopName = strings.TrimSpace(input.ShopName)
		updated.BusinessCategory = strings.TrimSpace(input.BusinessCategory)
		updated.ServiceArea = strings.TrimSpace(input.ServiceArea)
		updated.OffersOnDemandProducts = input.OffersOnDemand
	}

	if err := s.users.UpdateProfile(ctx, updated); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrMobileTaken
		}
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return s.Get(ctx, principal, id)
}

// Delete removes the account. Tokens already issued to it fail with an unknown
// subject on their next use.
func (s *UserService) Delete(ctx context.Context, principal *domain.Principal, id int64) error {
	if principal == nil {
		return ErrMissingToken
	}
	if !domain.CanModifyOwned(principal, id) {
		return ErrForbidden
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}

// ByPincode lists the accounts registered for a pincode.
func (s *UserService) ByPincode(ctx context.Context, pincode string) ([]domain.User, error) {
	pincode = strings.TrimSpace(pincode)
	if pincode == "" {
		return nil, fmt.Errorf("%w: pincode is required", ErrInvalidInput)
	}
	return s.find(ctx, domain.UserQuery{Pincode: pincode})
}

// BusinessOwners lists business owners offering category in pincode.
func (s *UserService) BusinessOwners(ctx context.Context, category, pincode string) ([]domain.User, error) {
	category, pincode = strings.TrimSpace(category), strings.TrimSpace(pincode)
	if category == "" || pincode == "" {
		return nil, fmt.Errorf("%w: category and pincode are required", ErrInvalidInput)
	}
	return s.find(ctx, domain.UserQuery{
		Role:             domain.RoleBusinessOwner,
		Pincode:          pincode,
		BusinessCategory: category,
	})
}

func (s *UserService) find(ctx context.Context, query domain.UserQuery) ([]domain.User, error) {
	users, err := s.users.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}
