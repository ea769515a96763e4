package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jawara/internal/utils"
	"jawara/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userTableName = "users"

var userColumns = utils.StructTagValues(types.User{})

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) User(ctx context.Context, userID string) (*types.User, error) {
	return r.userWhere(ctx, sq.Eq{"id": userID})
}

func (r *UserRepository) UserByEmail(ctx context.Context, email string) (*types.User, error) {
	return r.userWhere(ctx, sq.Eq{"lower(email)": strings.ToLower(strings.TrimSpace(email))})
}

func (r *UserRepository) userWhere(ctx context.Context, pred sq.Eq) (*types.User, error) {
	query, args, err := psql().
		Select(userColumns...).
		From(userTableName).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user query: %w", err)
	}

	var user types.User
	err = pgxscan.Get(ctx, conn(ctx, r.pool), &user, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *types.User) error {
	if user.ID == "" {
		user.ID = utils.NanoID()
	}
	if user.Role == "" {
		user.Role = types.RoleWarga
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = time.Now()

	query, args, err := psql().
		Insert(userTableName).
		SetMap(utils.StructToMap(user)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create user query: %w", err)
	}

	_, err = conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return types.ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}
