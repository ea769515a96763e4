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

const marketplaceTableName = "marketplace"

var marketplaceColumns = utils.StructTagValues(types.MarketPlaceItem{})

type MarketplaceRepository struct {
	pool *pgxpool.Pool
}

func NewMarketplaceRepository(pool *pgxpool.Pool) *MarketplaceRepository {
	return &MarketplaceRepository{pool: pool}
}

func (r *MarketplaceRepository) AllItems(ctx context.Context) ([]*types.MarketPlaceItem, error) {
	query, args, err := psql().
		Select(marketplaceColumns...).
		From(marketplaceTableName).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate marketplace list query: %w", err)
	}

	items := make([]*types.MarketPlaceItem, 0)
	if err := pgxscan.Select(ctx, conn(ctx, r.pool), &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch marketplace items: %w", err)
	}

	return items, nil
}

func (r *MarketplaceRepository) Item(ctx context.Context, id string) (*types.MarketPlaceItem, error) {
	query, args, err := psql().
		Select(marketplaceColumns...).
		From(marketplaceTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate marketplace item query: %w", err)
	}

	var item types.MarketPlaceItem
	err = pgxscan.Get(ctx, conn(ctx, r.pool), &item, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrMarketPlaceItemNotFound
		}
		return nil, fmt.Errorf("failed to fetch marketplace item: %w", err)
	}

	return &item, nil
}

func (r *MarketplaceRepository) CreateItem(ctx context.Context, item *types.MarketPlaceItem) error {
	if item.ID == "" {
		item.ID = utils.NanoID()
	}
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	query, args, err := psql().
		Insert(marketplaceTableName).
		SetMap(utils.StructToMap(item)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create marketplace item query: %w", err)
	}

	if _, err := conn(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create marketplace item: %w", err)
	}

	return nil
}

func (r *MarketplaceRepository) UpdateItem(ctx context.Context, id string, item *types.MarketPlaceItem) error {
	item.ID = id
	item.UpdatedAt = time.Now()

	fields := utils.StructToMap(item)
	delete(fields, "id")
	delete(fields, "created_at")

	query, args, err := psql().
		Update(marketplaceTableName).
		SetMap(fields).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update marketplace item query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update marketplace item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrMarketPlaceItemNotFound
	}

	return nil
}

func (r *MarketplaceRepository) DeleteItem(ctx context.Context, id string) error {
	query, args, err := psql().
		Delete(marketplaceTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete marketplace item query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete marketplace item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrMarketPlaceItemNotFound
	}

	return nil
}
