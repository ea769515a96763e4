package server

import (
	"net/http"
	"strings"

	"jawara/internal/verification"
	"jawara/pkg/types"

	"github.com/alexedwards/flow"
)

type submitForm struct {
	NIKBaru        string `form:"nik_baru"`
	NamaWargaBaru  string `form:"namaWarga_baru"`
	JenisKelamin   string `form:"jenisKelamin"`
	StatusDomisili string `form:"statusDomisili"`
	StatusHidup    string `form:"statusHidup"`
}

type rejectForm struct {
	Reason string `form:"reason"`
}

func (s *Service) handleSubmitVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, _ := claimsFromContext(ctx)

	var input submitForm
	values, err := s.decodeBody(r, &input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	document, err := s.uploadedFile(r, "foto_ktp")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.verification.Submit(ctx, verification.SubmitInput{
		UserID:         claims.UserID,
		NIKBaru:        input.NIKBaru,
		NamaWargaBaru:  input.NamaWargaBaru,
		JenisKelamin:   strings.TrimSpace(input.JenisKelamin),
		StatusDomisili: strings.TrimSpace(input.StatusDomisili),
		StatusHidup:    strings.TrimSpace(input.StatusHidup),
		KeluargaID:     optional(values, "keluargaId"),
		Document:       document,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	message := "Verification request submitted successfully. Your profile status is now pending."
	switch result.Shape.Kind {
	case verification.KindRegistration:
		message = "Verification request submitted successfully. Admin will review your registration."
	case verification.KindAssignment:
		message = "Assignment request submitted. Admin will review and assign this NIK to your account."
	}

	s.created(w, message, result.Request)
}

func (s *Service) handleMyVerifications(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	requests, err := s.verification.Mine(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, "Your verification requests retrieved successfully", requests)
}

func (s *Service) handleAllVerifications(w http.ResponseWriter, r *http.Request) {
	requests, err := s.verification.All(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, "Verification requests retrieved successfully", requests)
}

func (s *Service) handlePendingVerifications(w http.ResponseWriter, r *http.Request) {
	requests, err := s.verification.Pending(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, "Pending verification requests retrieved successfully", requests)
}

func (s *Service) handleGetVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, _ := claimsFromContext(ctx)

	request, err := s.verification.Get(ctx, flow.Param(ctx, "id"), claims.UserID, claims.Role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, "Verification request retrieved successfully", request)
}

type approveView struct {
	Verification *types.VerificationRequest `json:"verification"`
	Kind         verification.Kind          `json:"kind"`
	Warga        *types.Warga               `json:"warga"`
	OldNIK       string                     `json:"old_nik,omitempty"`
}

func (s *Service) handleApproveVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, _ := claimsFromContext(ctx)

	result, err := s.verification.Approve(ctx, flow.Param(ctx, "id"), claims.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	message := "Verification approved. Warga data updated successfully."
	if result.Shape.Kind == verification.KindAssignment {
		message = "NIK assigned to user successfully"
	}

	s.ok(w, message, approveView{
		Verification: result.Request,
		Kind:         result.Shape.Kind,
		Warga:        result.Warga,
		OldNIK:       result.OldNIK,
	})
}

func (s *Service) handleRejectVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, _ := claimsFromContext(ctx)

	var input rejectForm
	if _, err := s.decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.verification.Reject(ctx, flow.Param(ctx, "id"), claims.UserID, strings.TrimSpace(input.Reason))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, result.Message, result.Request)
}
