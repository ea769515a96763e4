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

const verificationTableName = "verification_warga"

var verificationColumns = utils.StructTagValues(types.VerificationRequest{})

type VerificationRepository struct {
	pool *pgxpool.Pool
}

func NewVerificationRepository(pool *pgxpool.Pool) *VerificationRepository {
	return &VerificationRepository{pool: pool}
}

func (r *VerificationRepository) CreateRequest(ctx context.Context, req *types.VerificationRequest) error {
	if req.ID == "" {
		req.ID = utils.NanoID()
	}
	if req.Status == "" {
		req.Status = types.VerificationStatusPending
	}
	req.CreatedAt = time.Now()

	query, args, err := psql().
		Insert(verificationTableName).
		SetMap(utils.StructToMap(req)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create verification query: %w", err)
	}

	_, err = conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		// verification_warga_one_pending_per_user
		if isUniqueViolation(err) {
			return types.ErrPendingVerificationExist
		}
		return fmt.Errorf("failed to create verification request: %w", err)
	}

	return nil
}

func (r *VerificationRepository) Request(ctx context.Context, id string) (*types.VerificationRequest, error) {
	query, args, err := psql().
		Select(verificationColumns...).
		From(verificationTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification query: %w", err)
	}

	var req types.VerificationRequest
	err = pgxscan.Get(ctx, conn(ctx, r.pool), &req, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrVerificationNotFound
		}
		return nil, fmt.Errorf("failed to fetch verification request: %w", err)
	}

	return &req, nil
}

// PendingByUserID returns the account's open request, or nil when it has none.
func (r *VerificationRepository) PendingByUserID(ctx context.Context, userID string) (*types.VerificationRequest, error) {
	requests, err := r.list(ctx, sq.Eq{"user_id": userID, "status": types.VerificationStatusPending}, 1)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, nil
	}

	return requests[0], nil
}

func (r *VerificationRepository) AllRequests(ctx context.Context) ([]*types.VerificationRequest, error) {
	return r.list(ctx, nil, 0)
}

func (r *VerificationRepository) PendingRequests(ctx context.Context) ([]*types.VerificationRequest, error) {
	return r.list(ctx, sq.Eq{"status": types.VerificationStatusPending}, 0)
}

func (r *VerificationRepository) RequestsByUserID(ctx context.Context, userID string) ([]*types.VerificationRequest, error) {
	return r.list(ctx, sq.Eq{"user_id": userID}, 0)
}

func (r *VerificationRepository) list(ctx context.Context, pred sq.Eq, limit uint64) ([]*types.VerificationRequest, error) {
	builder := psql().
		Select(verificationColumns...).
		From(verificationTableName).
		OrderBy("created_at DESC")
	if pred != nil {
		builder = builder.Where(pred)
	}
	if limit > 0 {
		builder = builder.Limit(limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification list query: %w", err)
	}

	requests := make([]*types.VerificationRequest, 0)
	if err := pgxscan.Select(ctx, conn(ctx, r.pool), &requests, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch verification requests: %w", err)
	}

	return requests, nil
}

// ResolveRequest persists the terminal status set by VerificationRequest.Resolve.
// The update only matches a row that is still pending, so a request resolved
// concurrently yields ErrAlreadyProcessed.
func (r *VerificationRepository) ResolveRequest(ctx context.Context, req *types.VerificationRequest) error {
	query, args, err := psql().
		Update(verificationTableName).
		Set("status", req.Status).
		Set("verified_by", req.VerifiedBy).
		Set("verified_at", req.VerifiedAt).
		Where(sq.Eq{"id": req.ID, "status": types.VerificationStatusPending}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate resolve verification query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to resolve verification request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrAlreadyProcessed
	}

	return nil
}
