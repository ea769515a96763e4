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

const (
	wargaTableName        = "warga"
	wargaKeluargaFKeyName = "warga_keluarga_id_fkey"
)

var wargaWritableColumns = utils.WritableTagValues(types.Warga{})

type WargaRepository struct {
	pool *pgxpool.Pool
}

func NewWargaRepository(pool *pgxpool.Pool) *WargaRepository {
	return &WargaRepository{pool: pool}
}

// selectWarga joins the household name onto every resident read.
func selectWarga() sq.SelectBuilder {
	columns := append(utils.Prefixed("w", wargaWritableColumns), "k.nama_keluarga")
	return psql().
		Select(columns...).
		From(wargaTableName + " w").
		LeftJoin(keluargaTableName + " k ON k.id = w.keluarga_id")
}

func (r *WargaRepository) AllWarga(ctx context.Context) ([]*types.Warga, error) {
	query, args, err := selectWarga().
		OrderBy("w.created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate warga list query: %w", err)
	}

	warga := make([]*types.Warga, 0)
	if err := pgxscan.Select(ctx, conn(ctx, r.pool), &warga, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch warga: %w", err)
	}

	return warga, nil
}

func (r *WargaRepository) WargaByNIK(ctx context.Context, nik string) (*types.Warga, error) {
	return r.wargaWhere(ctx, sq.Eq{"w.nik": nik})
}

func (r *WargaRepository) WargaByUserID(ctx context.Context, userID string) (*types.Warga, error) {
	return r.wargaWhere(ctx, sq.Eq{"w.user_id": userID})
}

func (r *WargaRepository) wargaWhere(ctx context.Context, pred sq.Eq) (*types.Warga, error) {
	query, args, err := selectWarga().
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate warga query: %w", err)
	}

	var warga types.Warga
	err = pgxscan.Get(ctx, conn(ctx, r.pool), &warga, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrWargaNotFound
		}
		return nil, fmt.Errorf("failed to fetch warga: %w", err)
	}

	return &warga, nil
}

func (r *WargaRepository) CreateWarga(ctx context.Context, warga *types.Warga) error {
	now := time.Now()
	warga.CreatedAt = now
	warga.UpdatedAt = now

	query, args, err := psql().
		Insert(wargaTableName).
		SetMap(utils.StructToMap(warga)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create warga query: %w", err)
	}

	_, err = conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return types.ErrDuplicate
		}
		if isForeignKeyViolation(err, wargaKeluargaFKeyName) {
			return types.ErrUnknownKeluarga
		}
		return fmt.Errorf("failed to create warga: %w", err)
	}

	return nil
}

// UpdateWarga writes every column of warga to the row keyed by nik.
func (r *WargaRepository) UpdateWarga(ctx context.Context, nik string, warga *types.Warga) error {
	warga.NIK = nik
	warga.UpdatedAt = time.Now()

	fields := utils.StructToMap(warga)
	delete(fields, "created_at")

	query, args, err := psql().
		Update(wargaTableName).
		SetMap(fields).
		Where(sq.Eq{"nik": nik}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update warga query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return types.ErrDuplicate
		}
		if isForeignKeyViolation(err, wargaKeluargaFKeyName) {
			return types.ErrUnknownKeluarga
		}
		return fmt.Errorf("failed to update warga: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrWargaNotFound
	}

	return nil
}

func (r *WargaRepository) UpdateWargaStatus(ctx context.Context, nik string, status types.WargaStatus) error {
	query, args, err := psql().
		Update(wargaTableName).
		Set("status", status).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"nik": nik}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate warga status query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update warga status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrWargaNotFound
	}

	return nil
}

// ReplaceWarga moves the resident stored under oldNIK to warga.NIK. The NIK
// is the primary key and user_id is unique, so the old row is removed before
// the new one is inserted. Households headed by the old NIK are repointed
// afterwards. Callers run this inside a UnitOfWork.
func (r *WargaRepository) ReplaceWarga(ctx context.Context, oldNIK string, warga *types.Warga) error {
	query, args, err := psql().
		Select("id").
		From(keluargaTableName).
		Where(sq.Eq{"kepala_keluarga_id": oldNIK}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate kepala keluarga lookup query: %w", err)
	}

	var headed []string
	if err := pgxscan.Select(ctx, conn(ctx, r.pool), &headed, query, args...); err != nil {
		return fmt.Errorf("failed to fetch households headed by warga: %w", err)
	}

	if err := r.DeleteWarga(ctx, oldNIK); err != nil {
		return err
	}

	if err := r.CreateWarga(ctx, warga); err != nil {
		return err
	}

	if len(headed) == 0 {
		return nil
	}

	query, args, err = psql().
		Update(keluargaTableName).
		Set("kepala_keluarga_id", warga.NIK).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": headed}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate kepala keluarga query: %w", err)
	}

	if _, err := conn(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to repoint kepala keluarga: %w", err)
	}

	return nil
}

func (r *WargaRepository) DeleteWarga(ctx context.Context, nik string) error {
	query, args, err := psql().
		Delete(wargaTableName).
		Where(sq.Eq{"nik": nik}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete warga query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete warga: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrWargaNotFound
	}

	return nil
}
