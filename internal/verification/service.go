package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jawara/internal/metrics"
	"jawara/pkg/types"

	"github.com/sirupsen/logrus"
)

const (
	msgPendingExists    = "You already have a pending verification request. Please wait for admin approval or rejection before submitting a new request."
	msgAlreadyProcessed = "This verification request has already been processed"
	msgNIKTaken         = "Cannot approve: NIK already exists in the system"
	msgNIKTakenNote     = "Please reject this request or ask the requester to choose a different NIK."
	msgRejected         = "Verification request rejected and warga status updated"
)

type Residents interface {
	WargaByNIK(ctx context.Context, nik string) (*types.Warga, error)
	WargaByUserID(ctx context.Context, userID string) (*types.Warga, error)
	CreateWarga(ctx context.Context, warga *types.Warga) error
	UpdateWarga(ctx context.Context, nik string, warga *types.Warga) error
	UpdateWargaStatus(ctx context.Context, nik string, status types.WargaStatus) error
	ReplaceWarga(ctx context.Context, oldNIK string, warga *types.Warga) error
}

type Requests interface {
	CreateRequest(ctx context.Context, req *types.VerificationRequest) error
	Request(ctx context.Context, id string) (*types.VerificationRequest, error)
	PendingByUserID(ctx context.Context, userID string) (*types.VerificationRequest, error)
	AllRequests(ctx context.Context) ([]*types.VerificationRequest, error)
	PendingRequests(ctx context.Context) ([]*types.VerificationRequest, error)
	RequestsByUserID(ctx context.Context, userID string) ([]*types.VerificationRequest, error)
	ResolveRequest(ctx context.Context, req *types.VerificationRequest) error
}

type Accounts interface {
	User(ctx context.Context, userID string) (*types.User, error)
}

// Transactor runs fn atomically. Lock serializes transactions touching the
// same keys until the surrounding Do returns.
type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	Lock(ctx context.Context, keys ...string) error
}

// Service drives the resident identity verification workflow.
type Service struct {
	logger    *logrus.Logger
	residents Residents
	requests  Requests
	accounts  Accounts
	documents Documents
	tx        Transactor
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(
	logger *logrus.Logger,
	residents Residents,
	requests Requests,
	accounts Accounts,
	documents Documents,
	tx Transactor,
	opts ...Option,
) *Service {
	s := &Service{
		logger:    logger,
		residents: residents,
		requests:  requests,
		accounts:  accounts,
		documents: documents,
		tx:        tx,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApproveResult is the state left behind by an approval.
type ApproveResult struct {
	Request *types.VerificationRequest
	Shape   Shape
	Warga   *types.Warga
	// OldNIK is set when the approval moved the resident to a new NIK.
	OldNIK string
}

// Approve accepts a pending request. The branch is chosen by ShapeOf. All
// reads and writes happen in one transaction holding locks on the request
// and on every NIK it touches, so a refused approval leaves nothing behind.
func (s *Service) Approve(ctx context.Context, id, adminID string) (*ApproveResult, error) {
	var result *ApproveResult

	err := s.tx.Do(ctx, func(ctx context.Context) error {
		req, err := s.lockPending(ctx, id)
		if err != nil {
			return err
		}

		target, err := s.lockTarget(ctx, req)
		if err != nil {
			return err
		}

		shape := ShapeOf(req, target)
		result = &ApproveResult{Request: req, Shape: shape}

		switch shape.Kind {
		case KindAssignment:
			result.Warga, err = s.approveAssignment(ctx, req, target)
		case KindRegistration:
			result.Warga, err = s.approveRegistration(ctx, req)
		default:
			result.Warga, err = s.approveUpdate(ctx, req, target)
			if err == nil && target.NIK != result.Warga.NIK {
				result.OldNIK = target.NIK
			}
		}
		if err != nil {
			return err
		}

		return s.resolve(ctx, req, types.VerificationStatusAccepted, adminID)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncResolved(string(types.VerificationStatusAccepted))
	s.logger.WithFields(logrus.Fields{
		"request_id": result.Request.ID,
		"user_id":    result.Request.UserID,
		"admin_id":   adminID,
		"kind":       result.Shape.Kind,
		"nik":        result.Warga.NIK,
	}).Info("verification request approved")

	return result, nil
}

func (s *Service) approveAssignment(ctx context.Context, req *types.VerificationRequest, target *types.Warga) (*types.Warga, error) {
	if target == nil {
		return nil, types.NotFoundError("Warga data not found", types.ErrWargaNotFound)
	}

	if target.HasOwner() && !target.OwnedBy(req.UserID) {
		details, err := s.nikConflict(ctx, target, msgNIKTakenNote)
		if err != nil {
			return nil, err
		}
		return nil, s.conflict("nik_taken", "NIK already exists and is assigned to another user", details)
	}

	if err := s.ensureNoOtherProfile(ctx, req.UserID, target.NIK); err != nil {
		return nil, err
	}

	assigned := *target
	assigned.UserID = &req.UserID
	assigned.SetStatus(types.WargaStatusAccepted)

	if err := s.residents.UpdateWarga(ctx, assigned.NIK, &assigned); err != nil {
		return nil, s.writeConflict(err)
	}

	return &assigned, nil
}

func (s *Service) approveRegistration(ctx context.Context, req *types.VerificationRequest) (*types.Warga, error) {
	if err := s.ensureNoOtherProfile(ctx, req.UserID, ""); err != nil {
		return nil, err
	}

	if err := s.ensureNIKFree(ctx, req.NIKBaru); err != nil {
		return nil, err
	}

	created := &types.Warga{
		NIK:       req.NIKBaru,
		NamaWarga: req.NamaWargaBaru,
		UserID:    &req.UserID,
	}
	applyExtra(created, req.ExtraData)
	created.SetStatus(types.WargaStatusAccepted)

	if err := s.residents.CreateWarga(ctx, created); err != nil {
		return nil, s.writeConflict(err)
	}

	return created, nil
}

func (s *Service) approveUpdate(ctx context.Context, req *types.VerificationRequest, target *types.Warga) (*types.Warga, error) {
	if target == nil {
		return nil, types.NotFoundError("Warga data not found", types.ErrWargaNotFound)
	}

	changingNIK := req.NIKBaru != target.NIK
	if changingNIK {
		if err := s.ensureNIKFree(ctx, req.NIKBaru); err != nil {
			return nil, err
		}
	}

	updated := *target
	updated.NamaWarga = req.NamaWargaBaru
	applyExtra(&updated, req.ExtraData)
	updated.SetStatus(types.WargaStatusAccepted)

	if changingNIK {
		updated.NIK = req.NIKBaru
		if err := s.residents.ReplaceWarga(ctx, target.NIK, &updated); err != nil {
			return nil, s.writeConflict(err)
		}
		return &updated, nil
	}

	if err := s.residents.UpdateWarga(ctx, target.NIK, &updated); err != nil {
		return nil, s.writeConflict(err)
	}

	return &updated, nil
}

// RejectResult carries the rejected request and the message echoed back to
// the caller.
type RejectResult struct {
	Request *types.VerificationRequest
	Message string
}

// Reject refuses a pending request. The referenced resident, if it still
// exists, is marked rejected. Identity fields are never touched.
func (s *Service) Reject(ctx context.Context, id, adminID, reason string) (*RejectResult, error) {
	var req *types.VerificationRequest

	err := s.tx.Do(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.lockPending(ctx, id)
		if err != nil {
			return err
		}

		target, err := s.lockTarget(ctx, req)
		if err != nil {
			return err
		}

		if target != nil {
			if err := s.residents.UpdateWargaStatus(ctx, target.NIK, types.WargaStatusRejected); err != nil {
				return err
			}
		}

		return s.resolve(ctx, req, types.VerificationStatusRejected, adminID)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncResolved(string(types.VerificationStatusRejected))
	s.logger.WithFields(logrus.Fields{
		"request_id": req.ID,
		"user_id":    req.UserID,
		"admin_id":   adminID,
	}).Info("verification request rejected")

	message := reason
	if message == "" {
		message = msgRejected
	}

	return &RejectResult{Request: req, Message: message}, nil
}

func (s *Service) All(ctx context.Context) ([]*types.VerificationRequest, error) {
	return s.requests.AllRequests(ctx)
}

func (s *Service) Pending(ctx context.Context) ([]*types.VerificationRequest, error) {
	return s.requests.PendingRequests(ctx)
}

func (s *Service) Mine(ctx context.Context, userID string) ([]*types.VerificationRequest, error) {
	return s.requests.RequestsByUserID(ctx, userID)
}

// Get returns one request to its owner or to an admin.
func (s *Service) Get(ctx context.Context, id, callerID string, callerRole types.Role) (*types.VerificationRequest, error) {
	req, err := s.requests.Request(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrVerificationNotFound) {
			return nil, types.NotFoundError("Verification request not found", err)
		}
		return nil, err
	}

	if req.UserID != callerID && !callerRole.IsAdmin() {
		return nil, types.ForbiddenError("You are not allowed to view this verification request")
	}

	return req, nil
}

// lockPending locks the request id and returns the request if it is still
// pending.
func (s *Service) lockPending(ctx context.Context, id string) (*types.VerificationRequest, error) {
	if err := s.tx.Lock(ctx, "verification:"+id); err != nil {
		return nil, err
	}

	req, err := s.requests.Request(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrVerificationNotFound) {
			return nil, types.NotFoundError("Verification request not found", err)
		}
		return nil, err
	}

	if !req.IsPending() {
		return nil, s.conflict("already_processed", msgAlreadyProcessed, nil)
	}

	return req, nil
}

// lockTarget locks every NIK the request touches and loads the resident it
// references, if any.
func (s *Service) lockTarget(ctx context.Context, req *types.VerificationRequest) (*types.Warga, error) {
	keys := []string{"warga:" + req.NIKBaru}
	if req.WargaID != nil {
		keys = append(keys, "warga:"+*req.WargaID)
	}
	if err := s.tx.Lock(ctx, keys...); err != nil {
		return nil, err
	}

	if req.WargaID == nil {
		return nil, nil
	}
	return s.findWarga(ctx, *req.WargaID)
}

func (s *Service) resolve(ctx context.Context, req *types.VerificationRequest, status types.VerificationStatus, adminID string) error {
	if err := req.Resolve(status, adminID, s.now()); err != nil {
		return s.conflict("already_processed", msgAlreadyProcessed, nil)
	}

	if err := s.requests.ResolveRequest(ctx, req); err != nil {
		if errors.Is(err, types.ErrAlreadyProcessed) {
			return s.conflict("already_processed", msgAlreadyProcessed, nil)
		}
		return err
	}

	return nil
}

func (s *Service) ensureNIKFree(ctx context.Context, nik string) error {
	holder, err := s.findWarga(ctx, nik)
	if err != nil {
		return err
	}
	if holder == nil {
		return nil
	}

	details, err := s.nikConflict(ctx, holder, msgNIKTakenNote)
	if err != nil {
		return err
	}
	return s.conflict("nik_taken", msgNIKTaken, details)
}

// ensureNoOtherProfile fails if userID already owns a resident other than
// allowedNIK.
func (s *Service) ensureNoOtherProfile(ctx context.Context, userID, allowedNIK string) error {
	own, err := s.findOwn(ctx, userID)
	if err != nil {
		return err
	}
	if own != nil && own.NIK != allowedNIK {
		return s.conflict("profile_exists", "Requester already has a warga profile", own)
	}
	return nil
}

// DescribeHolder reports the resident holding nik and its owning account,
// or nil when the NIK is free.
func (s *Service) DescribeHolder(ctx context.Context, nik string) (*types.NIKConflict, error) {
	holder, err := s.findWarga(ctx, nik)
	if err != nil || holder == nil {
		return nil, err
	}
	return s.nikConflict(ctx, holder, "")
}

// nikConflict describes holder together with its owning account.
func (s *Service) nikConflict(ctx context.Context, holder *types.Warga, note string) (*types.NIKConflict, error) {
	details := &types.NIKConflict{
		NIK:       holder.NIK,
		NamaWarga: holder.NamaWarga,
		Status:    holder.Status,
		Note:      note,
	}

	if !holder.HasOwner() {
		return details, nil
	}

	user, err := s.accounts.User(ctx, *holder.UserID)
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			return details, nil
		}
		return nil, fmt.Errorf("failed to fetch nik owner: %w", err)
	}

	details.User = &types.ConflictUser{ID: user.ID, Nama: user.Nama, Email: user.Email}
	return details, nil
}

func (s *Service) findWarga(ctx context.Context, nik string) (*types.Warga, error) {
	if nik == "" {
		return nil, nil
	}
	warga, err := s.residents.WargaByNIK(ctx, nik)
	if errors.Is(err, types.ErrWargaNotFound) {
		return nil, nil
	}
	return warga, err
}

func (s *Service) findOwn(ctx context.Context, userID string) (*types.Warga, error) {
	warga, err := s.residents.WargaByUserID(ctx, userID)
	if errors.Is(err, types.ErrWargaNotFound) {
		return nil, nil
	}
	return warga, err
}

func (s *Service) conflict(reason, message string, details any) *types.AppError {
	s.metrics.IncConflict(reason)
	return types.ConflictError(message, details)
}

// writeConflict maps unique violations raised by a resident write, which
// only happen when a concurrent writer won the race.
func (s *Service) writeConflict(err error) error {
	if errors.Is(err, types.ErrDuplicate) {
		return s.conflict("nik_taken", msgNIKTaken, nil)
	}
	return err
}

// applyExtra copies the secondary fields a request carries onto w. A blank
// keluarga id clears the household.
func applyExtra(w *types.Warga, extra types.VerificationExtra) {
	if extra.JenisKelamin != nil {
		jk := *extra.JenisKelamin
		w.JenisKelamin = &jk
	}
	if extra.StatusDomisili != nil {
		w.StatusDomisili = *extra.StatusDomisili
	}
	if extra.StatusHidup != nil {
		w.StatusHidup = *extra.StatusHidup
	}
	if extra.KeluargaID != nil {
		if *extra.KeluargaID == "" {
			w.KeluargaID = nil
		} else {
			id := *extra.KeluargaID
			w.KeluargaID = &id
		}
	}
}
