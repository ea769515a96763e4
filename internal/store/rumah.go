package store

import (
	"context"
	"fmt"
	"time"

	"jawara/internal/utils"
	"jawara/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const rumahTableName = "rumah"

var rumahColumns = utils.StructTagValues(types.Rumah{})

type RumahRepository struct {
	pool *pgxpool.Pool
}

func NewRumahRepository(pool *pgxpool.Pool) *RumahRepository {
	return &RumahRepository{pool: pool}
}

func (r *RumahRepository) AllRumah(ctx context.Context) ([]*types.Rumah, error) {
	query, args, err := psql().
		Select(rumahColumns...).
		From(rumahTableName).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate rumah list query: %w", err)
	}

	rumah := make([]*types.Rumah, 0)
	if err := pgxscan.Select(ctx, conn(ctx, r.pool), &rumah, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch rumah: %w", err)
	}

	return rumah, nil
}

func (r *RumahRepository) Rumah(ctx context.Context, id string) (*types.Rumah, error) {
	query, args, err := psql().
		Select(rumahColumns...).
		From(rumahTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate rumah query: %w", err)
	}

	var rumah types.Rumah
	err = pgxscan.Get(ctx, conn(ctx, r.pool), &rumah, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrRumahNotFound
		}
		return nil, fmt.Errorf("failed to fetch rumah: %w", err)
	}

	return &rumah, nil
}

func (r *RumahRepository) CreateRumah(ctx context.Context, rumah *types.Rumah) error {
	if rumah.ID == "" {
		rumah.ID = utils.NanoID()
	}
	now := time.Now()
	rumah.CreatedAt = now
	rumah.UpdatedAt = now

	query, args, err := psql().
		Insert(rumahTableName).
		SetMap(utils.StructToMap(rumah)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create rumah query: %w", err)
	}

	if _, err := conn(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create rumah: %w", err)
	}

	return nil
}

func (r *RumahRepository) UpdateRumah(ctx context.Context, id string, rumah *types.Rumah) error {
	rumah.ID = id
	rumah.UpdatedAt = time.Now()

	fields := utils.StructToMap(rumah)
	delete(fields, "id")
	delete(fields, "created_at")

	query, args, err := psql().
		Update(rumahTableName).
		SetMap(fields).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update rumah query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update rumah: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrRumahNotFound
	}

	return nil
}

func (r *RumahRepository) DeleteRumah(ctx context.Context, id string) error {
	query, args, err := psql().
		Delete(rumahTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete rumah query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete rumah: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrRumahNotFound
	}

	return nil
}
