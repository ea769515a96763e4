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

const keluargaTableName = "keluarga"

var keluargaColumns = utils.StructTagValues(types.Keluarga{})

type KeluargaRepository struct {
	pool *pgxpool.Pool
}

func NewKeluargaRepository(pool *pgxpool.Pool) *KeluargaRepository {
	return &KeluargaRepository{pool: pool}
}

func (r *KeluargaRepository) AllKeluarga(ctx context.Context) ([]*types.Keluarga, error) {
	query, args, err := psql().
		Select(keluargaColumns...).
		From(keluargaTableName).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate keluarga list query: %w", err)
	}

	keluarga := make([]*types.Keluarga, 0)
	if err := pgxscan.Select(ctx, conn(ctx, r.pool), &keluarga, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch keluarga: %w", err)
	}

	return keluarga, nil
}

func (r *KeluargaRepository) Keluarga(ctx context.Context, id string) (*types.Keluarga, error) {
	query, args, err := psql().
		Select(keluargaColumns...).
		From(keluargaTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate keluarga query: %w", err)
	}

	var keluarga types.Keluarga
	err = pgxscan.Get(ctx, conn(ctx, r.pool), &keluarga, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrKeluargaNotFound
		}
		return nil, fmt.Errorf("failed to fetch keluarga: %w", err)
	}

	return &keluarga, nil
}

func (r *KeluargaRepository) CreateKeluarga(ctx context.Context, keluarga *types.Keluarga) error {
	if keluarga.ID == "" {
		keluarga.ID = utils.NanoID()
	}
	now := time.Now()
	keluarga.CreatedAt = now
	keluarga.UpdatedAt = now

	query, args, err := psql().
		Insert(keluargaTableName).
		SetMap(utils.StructToMap(keluarga)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create keluarga query: %w", err)
	}

	if _, err := conn(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create keluarga: %w", err)
	}

	return nil
}

func (r *KeluargaRepository) UpdateKeluarga(ctx context.Context, id string, keluarga *types.Keluarga) error {
	keluarga.ID = id
	keluarga.UpdatedAt = time.Now()

	fields := utils.StructToMap(keluarga)
	delete(fields, "id")
	delete(fields, "created_at")

	query, args, err := psql().
		Update(keluargaTableName).
		SetMap(fields).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update keluarga query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update keluarga: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrKeluargaNotFound
	}

	return nil
}

func (r *KeluargaRepository) DeleteKeluarga(ctx context.Context, id string) error {
	query, args, err := psql().
		Delete(keluargaTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete keluarga query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete keluarga: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrKeluargaNotFound
	}

	return nil
}
