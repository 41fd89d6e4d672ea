package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/repository"
)

func TestUserRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)
	createdAt := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO board\.users .* RETURNING id`).
		WithArgs(
			"ravi",
			"argon2id$hash",
			"Ravi Kumar",
			"ravi@example.com",
			"9876543210",
			"560001",
			"BUSINESS_OWNER",
			"Ravi Hardware",
			nil,
			nil,
			false,
			createdAt,
			createdAt,
		).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, err := repo.Create(context.Background(), domain.User{
		Username:     "ravi",
		PasswordHash: "argon2id$hash",
		FullName:     "Ravi Kumar",
		Email:        "Ravi@Example.com",
		MobileNumber: "9876543210",
		Pincode:      "560001",
		Role:         domain.RoleBusinessOwner,
		ShopName:     "Ravi Hardware",
		CreatedAt:    createdAt,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected id 42, got %d", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_CreateConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectQuery(`INSERT INTO board\.users`).
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(),
		).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err = repo.Create(context.Background(), domain.User{Username: "dup", Email: "dup@example.com"})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestUserRepository_LookupIdentity(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)
	now := time.Now().UTC()

	rows := pgxmock.NewRows(userColumns).AddRow(
		int64(7), "meena", "argon2id$hash", "Meena", "meena@example.com", nil, "560002", "ADMIN", nil, nil, nil, false, now, now,
	)
	mock.ExpectQuery(`SELECT .* FROM board\.users WHERE username = \$1 LIMIT 1`).
		WithArgs("meena").
		WillReturnRows(rows)

	identity, err := repo.LookupIdentity(context.Background(), "meena")
	if err != nil {
		t.Fatalf("LookupIdentity returned error: %v", err)
	}
	if identity.UserID != 7 || identity.Username != "meena" || identity.Role != domain.RoleAdmin {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if identity.PasswordHash != "argon2id$hash" {
		t.Fatalf("expected password hash to be carried, got %q", identity.PasswordHash)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_GetByEmailNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectQuery(`SELECT .* FROM board\.users WHERE email = \$1`).
		WithArgs("ghost@example.com").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByEmail(context.Background(), "Ghost@Example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_ExistsAndCount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectQuery(`SELECT COUNT\(1\) > 0 FROM board\.users WHERE mobile_number = \$1`).
		WithArgs("9000000000").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM board\.users`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(12)))

	exists, err := repo.ExistsByMobileNumber(context.Background(), "9000000000")
	if err != nil {
		t.Fatalf("ExistsByMobileNumber returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected mobile number to exist")
	}

	count, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 12 {
		t.Fatalf("expected 12 users, got %d", count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_ListPagesByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM board\.users`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectQuery(`SELECT id, .* FROM board\.users ORDER BY id ASC LIMIT 2 OFFSET 2`).
		WillReturnRows(pgxmock.NewRows(userColumns).AddRow(
			int64(3), "ravi", "argon2id$hash", "Ravi", "ravi@example.com", nil, "560001", "BUSINESS_OWNER", "Ravi Hardware", "HARDWARE", nil, true, now, now,
		))

	users, total, err := repo.List(context.Background(), domain.PageRequest{Page: 1, Size: 2})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 3 || len(users) != 1 {
		t.Fatalf("expected 1 of 3 users, got %d of %d", len(users), total)
	}
	if users[0].Role != domain.RoleBusinessOwner || users[0].ShopName != "Ravi Hardware" || !users[0].OffersOnDemandProducts {
		t.Fatalf("unexpected user: %+v", users[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_FindBusinessOwners(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectQuery(`SELECT id, .* FROM board\.users WHERE \(role = \$1 AND pincode = \$2 AND LOWER\(business_category\) = LOWER\(\$3\)\) ORDER BY id ASC`).
		WithArgs("BUSINESS_OWNER", "560001", "plumbing").
		WillReturnRows(pgxmock.NewRows(userColumns))

	users, err := repo.Find(context.Background(), domain.UserQuery{
		Role:             domain.RoleBusinessOwner,
		Pincode:          "560001",
		BusinessCategory: "plumbing",
	})
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected no users, got %d", len(users))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_RoleChangeAndDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectExec(`UPDATE board\.users SET role = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs("CUSTOMER", pgxmock.AnyArg(), int64(4)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`DELETE FROM board\.users WHERE id = \$1`).
		WithArgs(int64(4)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM board\.users WHERE id = \$1`).
		WithArgs(int64(4)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM board\.users WHERE role = \$1`).
		WithArgs("ADMIN").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))

	ctx := context.Background()
	if err := repo.UpdateRole(ctx, 4, domain.RoleCustomer); err != nil {
		t.Fatalf("UpdateRole returned error: %v", err)
	}
	if err := repo.Delete(ctx, 4); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := repo.Delete(ctx, 4); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	admins, err := repo.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("CountByRole returned error: %v", err)
	}
	if admins != 1 {
		t.Fatalf("expected 1 admin, got %d", admins)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_UpdateProfileConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectExec(`UPDATE board\.users SET full_name = \$1, .* WHERE id = \$9`).
		WithArgs("Meena K", "9000000000", "560002", nil, nil, nil, false, pgxmock.AnyArg(), int64(7)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_mobile_number_key"})

	err = repo.UpdateProfile(context.Background(), domain.User{
		ID:           7,
		FullName:     "Meena K",
		MobileNumber: "9000000000",
		Pincode:      "560002",
	})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
