package verification

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"jawara/internal/storage"
	"jawara/pkg/types"

	"github.com/sirupsen/logrus"
)

// Documents stores uploaded KTP images.
type Documents interface {
	UploadFile(ctx context.Context, path string, body io.Reader, contentType string) (string, error)
	GetPublicURL(path string) string
}

// Document is an uploaded KTP photo.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SubmitInput is a proposed identity change. Empty strings mean "not
// given". KeluargaID distinguishes not given (nil) from cleared ("").
type SubmitInput struct {
	UserID         string
	NIKBaru        string
	NamaWargaBaru  string
	JenisKelamin   string
	StatusDomisili string
	StatusHidup    string
	KeluargaID     *string
	Document       *Document
}

type SubmitResult struct {
	Request *types.VerificationRequest
	Shape   Shape
}

type submitMode int

const (
	modeAny submitMode = iota
	modeSelfRegister
	modeNameChange
)

// Submit files a request of whatever shape the account's state implies.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	return s.submit(ctx, in, modeAny)
}

// SelfRegister files a registration, or an assignment when the NIK belongs
// to a resident nobody owns. Accounts that already have a resident and NIKs
// owned by another account are refused up front.
func (s *Service) SelfRegister(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	return s.submit(ctx, in, modeSelfRegister)
}

// RequestNameChange files an update of the account's own resident that keeps
// its NIK and proposes a new name plus optional secondary fields.
func (s *Service) RequestNameChange(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	in.NIKBaru = ""
	return s.submit(ctx, in, modeNameChange)
}

func (s *Service) submit(ctx context.Context, in SubmitInput, mode submitMode) (*SubmitResult, error) {
	in.NIKBaru = strings.TrimSpace(in.NIKBaru)
	in.NamaWargaBaru = strings.TrimSpace(in.NamaWargaBaru)

	own, err := s.findOwn(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	var holder *types.Warga
	if in.NIKBaru != "" && (own == nil || own.NIK != in.NIKBaru) {
		holder, err = s.findWarga(ctx, in.NIKBaru)
		if err != nil {
			return nil, err
		}
	}

	shape := ShapeFor(own, holder)

	switch mode {
	case modeSelfRegister:
		if own != nil {
			return nil, s.conflict("profile_exists", "You already have a warga profile. Each user can only have one profile.", own)
		}
		if holder != nil && holder.HasOwner() {
			details, err := s.nikConflict(ctx, holder, "This NIK is already registered and assigned to another account.")
			if err != nil {
				return nil, err
			}
			return nil, s.conflict("nik_taken", "NIK already exists and is assigned to another user", details)
		}
	case modeNameChange:
		if own == nil {
			return nil, types.NotFoundError("Warga data not found for this user", types.ErrWargaNotFound)
		}
	}

	pending, err := s.requests.PendingByUserID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, s.conflict("pending_exists", msgPendingExists, pendingSummary(pending))
	}

	if err := validate(in, own, shape, mode); err != nil {
		return nil, err
	}

	req := &types.VerificationRequest{
		WargaID:       shape.WargaID(),
		UserID:        in.UserID,
		NIKBaru:       in.NIKBaru,
		NamaWargaBaru: in.NamaWargaBaru,
		Status:        types.VerificationStatusPending,
		ExtraData:     extraFrom(in, shape),
	}

	switch shape.Kind {
	case KindUpdate:
		req.NIKBaru = firstNonEmpty(req.NIKBaru, own.NIK)
		req.NamaWargaBaru = firstNonEmpty(req.NamaWargaBaru, own.NamaWarga)
	case KindAssignment:
		req.NamaWargaBaru = firstNonEmpty(req.NamaWargaBaru, holder.NamaWarga)
	}

	url, err := s.upload(ctx, in, shape)
	if err != nil {
		return nil, err
	}
	req.FotoKTP = url

	err = s.tx.Do(ctx, func(ctx context.Context) error {
		if err := s.requests.CreateRequest(ctx, req); err != nil {
			if errors.Is(err, types.ErrPendingVerificationExist) {
				return s.conflict("pending_exists", msgPendingExists, nil)
			}
			return err
		}

		// The resident shows as under review while the request is open.
		if shape.Kind == KindUpdate && own.CurrentStatus().CanTransitionTo(types.WargaStatusPending) {
			return s.residents.UpdateWargaStatus(ctx, own.NIK, types.WargaStatusPending)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncSubmitted(string(shape.Kind))
	s.logger.WithFields(logrus.Fields{
		"request_id": req.ID,
		"user_id":    req.UserID,
		"kind":       shape.Kind,
	}).Info("verification request submitted")

	return &SubmitResult{Request: req, Shape: shape}, nil
}

func (s *Service) upload(ctx context.Context, in SubmitInput, shape Shape) (string, error) {
	doc := in.Document
	name := storage.KTPObjectName(string(shape.Kind), in.UserID, doc.Filename, doc.ContentType, s.now())

	key, err := s.documents.UploadFile(ctx, name, bytes.NewReader(doc.Data), doc.ContentType)
	if err != nil {
		s.logger.WithError(err).WithField("object", name).Error("failed to upload ktp image")
		return "", types.UpstreamError("Failed to upload KTP image", err)
	}

	return s.documents.GetPublicURL(key), nil
}

// validate checks in against the submission's shape. own is the account's
// current resident and is only set for updates.
func validate(in SubmitInput, own *types.Warga, shape Shape, mode submitMode) error {
	switch {
	case mode == modeSelfRegister:
		if in.NIKBaru == "" || in.NamaWargaBaru == "" || in.JenisKelamin == "" || in.StatusDomisili == "" || in.StatusHidup == "" {
			return types.ValidationError("nik, namaWarga, jenisKelamin, statusDomisili, and statusHidup are required")
		}
	case mode == modeNameChange:
		if in.NamaWargaBaru == "" {
			return types.ValidationError("namaWarga is required for a name change")
		}
	case shape.Kind == KindRegistration:
		if in.NIKBaru == "" || in.NamaWargaBaru == "" {
			return types.ValidationError("nik_baru and namaWarga_baru are required for a new registration")
		}
	case shape.Kind == KindUpdate:
		if in.NIKBaru == "" && in.NamaWargaBaru == "" {
			return types.ValidationError("Please provide nik_baru or namaWarga_baru to update")
		}
		if firstNonEmpty(in.NIKBaru, own.NIK) == own.NIK && firstNonEmpty(in.NamaWargaBaru, own.NamaWarga) == own.NamaWarga {
			return types.ValidationError("nik_baru or namaWarga_baru must differ from the current data")
		}
	}

	if in.Document == nil || len(in.Document.Data) == 0 {
		return types.ValidationError("foto_ktp is required for verification")
	}
	if !strings.HasPrefix(in.Document.ContentType, "image/") {
		return types.ValidationError("foto_ktp must be an image")
	}

	if in.NIKBaru != "" && !types.ValidNIK(in.NIKBaru) {
		return types.ValidationError("nik_baru must be 16 digits")
	}

	if in.JenisKelamin != "" && !types.JenisKelamin(in.JenisKelamin).Valid() {
		return types.ValidationError("jenisKelamin must be either Laki-laki or Perempuan")
	}

	return nil
}

func extraFrom(in SubmitInput, shape Shape) types.VerificationExtra {
	extra := types.VerificationExtra{KeluargaID: in.KeluargaID}
	extra.IsNewRegistration, extra.IsAssignmentRequest = shape.Flags()

	if in.JenisKelamin != "" {
		jk := types.JenisKelamin(in.JenisKelamin)
		extra.JenisKelamin = &jk
	}
	if in.StatusDomisili != "" {
		v := in.StatusDomisili
		extra.StatusDomisili = &v
	}
	if in.StatusHidup != "" {
		v := in.StatusHidup
		extra.StatusHidup = &v
	}

	return extra
}

// PendingSummary is rendered with a pending-request conflict.
type PendingSummary struct {
	ID        string    `json:"id"`
	NIK       string    `json:"nik"`
	NamaWarga string    `json:"namaWarga"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func pendingSummary(req *types.VerificationRequest) *PendingSummary {
	return &PendingSummary{
		ID:        req.ID,
		NIK:       req.NIKBaru,
		NamaWarga: req.NamaWargaBaru,
		Status:    string(req.Status),
		CreatedAt: req.CreatedAt,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
