package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/core/port"
	"github.com/localsolutions/board-api/internal/repository"
)

var userColumns = []string{
	"id",
	"username",
	"password_hash",
	"full_name",
	"email",
	"mobile_number",
	"pincode",
	"role",
	"shop_name",
	"business_category",
	"service_area",
	"offers_on_demand_products",
	"created_at",
	"updated_at",
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository wires a PostgreSQL-backed user repository.
func NewUserRepository(exec pgExecutor) *UserRepository {
	return &UserRepository{
		exec:    exec,
		builder: newBuilder(),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	if tx == nil {
		return r
	}
	return &UserRepository{exec: tx, builder: r.builder}
}

// Create inserts a new user row and returns its generated identifier.
func (r *UserRepository) Create(ctx context.Context, user domain.User) (int64, error) {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	if user.Role == "" {
		user.Role = domain.RoleCustomer
	}

	stmt, args, err := r.builder.Insert("board.users").
		Columns(userColumns[1:]...).
		Values(
			user.Username,
			user.PasswordHash,
			user.FullName,
			strings.ToLower(user.Email),
			nullable(user.MobileNumber),
			nullable(user.Pincode),
			string(user.Role),
			nullable(user.ShopName),
			nullable(user.BusinessCategory),
			nullable(user.ServiceArea),
			user.OffersOnDemandProducts,
			user.CreatedAt,
			user.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert user sql: %w", err)
	}

	var id int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&id); err != nil {
		return 0, translateWriteError("insert user", err)
	}
	return id, nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByUsername retrieves a user by exact username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username})
}

// GetByEmail retrieves a user by email, case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": strings.ToLower(email)})
}

// LookupIdentity resolves a token subject for the session core.
func (r *UserRepository) LookupIdentity(ctx context.Context, username string) (*domain.Identity, error) {
	user, err := r.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	identity := user.Identity()
	return &identity, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"username": username})
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"email": strings.ToLower(email)})
}

func (r *UserRepository) ExistsByMobileNumber(ctx context.Context, mobile string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"mobile_number": mobile})
}

// Count returns the total number of registered users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.exec, r.builder.Select("COUNT(*)").From("board.users"), "users")
}

// CountByRole returns the number of users holding role.
func (r *UserRepository) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	return countRows(ctx, r.exec, r.builder.Select("COUNT(*)").From("board.users").Where(squirrel.Eq{"role": string(role)}), "users by role")
}

// List returns one page of users ordered by id, plus the total number of users.
func (r *UserRepository) List(ctx context.Context, page domain.PageRequest) ([]domain.User, int, error) {
	page = page.Normalize()

	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	users, err := r.query(ctx, r.builder.Select(userColumns...).
		From("board.users").
		OrderBy("id ASC").
		Limit(uint64(page.Size)).
		Offset(page.Offset()))
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Find returns every user matching the query, ordered by id.
func (r *UserRepository) Find(ctx context.Context, q domain.UserQuery) ([]domain.User, error) {
	where := squirrel.And{}
	if q.Role != "" {
		where = append(where, squirrel.Eq{"role": string(q.Role)})
	}
	if q.Pincode != "" {
		where = append(where, squirrel.Eq{"pincode": q.Pincode})
	}
	if q.BusinessCategory != "" {
		where = append(where, squirrel.Expr("LOWER(business_category) = LOWER(?)", q.BusinessCategory))
	}
	return r.query(ctx, r.builder.Select(userColumns...).
		From("board.users").
		Where(where).
		OrderBy("id ASC"))
}

// UpdateProfile rewrites the profile columns of an existing user.
func (r *UserRepository) UpdateProfile(ctx context.Context, user domain.User) error {
	stmt, args, err := r.builder.Update("board.users").
		Set("full_name", user.FullName).
		Set("mobile_number", nullable(user.MobileNumber)).
		Set("pincode", nullable(user.Pincode)).
		Set("shop_name", nullable(user.ShopName)).
		Set("business_category", nullable(user.BusinessCategory)).
		Set("service_area", nullable(user.ServiceArea)).
		Set("offers_on_demand_products", user.OffersOnDemandProducts).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update user sql: %w", err)
	}
	return r.execAffectingOne(ctx, "update user", stmt, args)
}

// UpdateRole assigns a new role. The change is visible to the auth gate on the user's next request.
func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	stmt, args, err := r.builder.Update("board.users").
		Set("role", string(role)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update user role sql: %w", err)
	}
	return r.execAffectingOne(ctx, "update user role", stmt, args)
}

// Delete removes a user; posts, comments and likes cascade.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	stmt, args, err := r.builder.Delete("board.users").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete user sql: %w", err)
	}
	return r.execAffectingOne(ctx, "delete user", stmt, args)
}

func (r *UserRepository) query(ctx context.Context, query squirrel.SelectBuilder) ([]domain.User, error) {
	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list users sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) execAffectingOne(ctx context.Context, op, stmt string, args []any) error {
	return execAffectingOne(ctx, r.exec, op, stmt, args)
}

func (r *UserRepository) exists(ctx context.Context, pred squirrel.Eq) (bool, error) {
	stmt, args, err := r.builder.Select("COUNT(1) > 0").
		From("board.users").
		Where(pred).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build user exists sql: %w", err)
	}

	var exists bool
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("scan user exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) getOne(ctx context.Context, pred squirrel.Eq) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("board.users").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	user, err := scanUser(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user             domain.User
		role             string
		mobile           sql.NullString
		pincode          sql.NullString
		shopName         sql.NullString
		businessCategory sql.NullString
		serviceArea      sql.NullString
	)

	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.FullName,
		&user.Email,
		&mobile,
		&pincode,
		&role,
		&shopName,
		&businessCategory,
		&serviceArea,
		&user.OffersOnDemandProducts,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	user.Role = domain.ParseRole(role)
	user.MobileNumber = mobile.String
	user.Pincode = pincode.String
	user.ShopName = shopName.String
	user.BusinessCategory = businessCategory.String
	user.ServiceArea = serviceArea.String
	return &user, nil
}

var (
	_ port.UserRepository    = (*UserRepository)(nil)
	_ port.IdentityDirectory = (*UserRepository)(nil)
)
