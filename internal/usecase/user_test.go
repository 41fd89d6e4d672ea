package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/repository"
)

func testBob() domain.User {
	return domain.User{
		ID:               2,
		Username:         "bob",
		PasswordHash:     "plain$secret2",
		FullName:         "Bob Plumber",
		Email:            "bob@example.com",
		MobileNumber:     "9990002222",
		Pincode:          "560001",
		Role:             domain.RoleBusinessOwner,
		ShopName:         "Bob's Pipes",
		BusinessCategory: "PLUMBING",
	}
}

func TestUserGetRequiresOwnerOrAdmin(t *testing.T) {
	svc := NewUserService(newTestUserRepo(testAlice(), testBob()))
	ctx := context.Background()

	user, err := svc.Get(ctx, author, 1)
	if err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if user.PasswordHash != "" {
		t.Fatal("password hash must not be returned")
	}
	if _, err := svc.Get(ctx, stranger, 1); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Get(ctx, admin, 1); err != nil {
		t.Fatalf("admin get: %v", err)
	}
	if _, err := svc.Get(ctx, nil, 1); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	if _, err := svc.Get(ctx, admin, 404); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserUpdateProfile(t *testing.T) {
	users := newTestUserRepo(testAlice(), testBob())
	svc := NewUserService(users)
	ctx := context.Background()

	updated, err := svc.UpdateProfile(ctx, author, 1, ProfileInput{
		FullName: " Alice E. ",
		Pincode:  "560034",
		ShopName: "not a business",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FullName != "Alice E." || updated.Pincode != "560034" {
		t.Fatalf("unexpected profile %+v", updated)
	}
	if updated.ShopName != "" {
		t.Fatalf("customers must not carry business fields, got %q", updated.ShopName)
	}
	if updated.Role != domain.RoleCustomer || updated.Email != "alice@example.com" {
		t.Fatalf("role and email must be untouched, got %+v", updated)
	}

	if _, err := svc.UpdateProfile(ctx, author, 1, ProfileInput{FullName: "Alice", MobileNumber: "9990002222"}); !errors.Is(err, ErrMobileTaken) {
		t.Fatalf("expected ErrMobileTaken, got %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, author, 1, ProfileInput{FullName: "  "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, author, 2, ProfileInput{FullName: "Mallory"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	shop, err := svc.UpdateProfile(ctx, stranger, 2, ProfileInput{FullName: "Bob", ShopName: "Bob & Sons", OffersOnDemand: true})
	if err != nil {
		t.Fatalf("business update: %v", err)
	}
	if shop.ShopName != "Bob & Sons" || !shop.OffersOnDemandProducts {
		t.Fatalf("unexpected business profile %+v", shop)
	}
}

func TestUserDeleteAndSearch(t *testing.T) {
	users := newTestUserRepo(testAlice(), testBob())
	svc := NewUserService(users)
	ctx := context.Background()

	owners, err := svc.BusinessOwners(ctx, "plumbing", "560001")
	if err != nil {
		t.Fatalf("business owners: %v", err)
	}
	if len(owners) != 1 || owners[0].Username != "bob" || owners[0].PasswordHash != "" {
		t.Fatalf("unexpected owners %+v", owners)
	}
	local, err := svc.ByPincode(ctx, "560001")
	if err != nil {
		t.Fatalf("by pincode: %v", err)
	}
	if len(local) != 2 {
		t.Fatalf("expected 2 local users, got %d", len(local))
	}
	if _, err := svc.ByPincode(ctx, " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	if err := svc.Delete(ctx, stranger, 1); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(ctx, author, 1); err != nil {
		t.Fatalf("self delete: %v", err)
	}
	if _, err := users.LookupIdentity(ctx, "alice"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("deleted user must not resolve, got %v", err)
	}
}
