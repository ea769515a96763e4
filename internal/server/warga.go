package server

import (
	"errors"
	"net/http"
	"strings"

	"jawara/internal/utils"
	"jawara/internal/verification"
	"jawara/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/sirupsen/logrus"
)

type wargaForm struct {
	NIK            string `form:"nik"`
	NamaWarga      string `form:"namaWarga"`
	JenisKelamin   string `form:"jenisKelamin"`
	StatusDomisili string `form:"statusDomisili"`
	StatusHidup    string `form:"statusHidup"`
	KeluargaID     string `form:"keluargaId"`
}

func (f *wargaForm) trim() {
	f.NIK = strings.TrimSpace(f.NIK)
	f.NamaWarga = strings.TrimSpace(f.NamaWarga)
	f.JenisKelamin = strings.TrimSpace(f.JenisKelamin)
	f.StatusDomisili = strings.TrimSpace(f.StatusDomisili)
	f.StatusHidup = strings.TrimSpace(f.StatusHidup)
}

func (s *Service) handleListWarga(w http.ResponseWriter, r *http.Request) {
	warga, err := s.warga.AllWarga(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, "Warga retrieved successfully", warga)
}

func (s *Service) handleGetWarga(w http.ResponseWriter, r *http.Request) {
	warga, err := s.lookupWarga(r, flow.Param(r.Context(), "nik"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, "Warga retrieved successfully", warga)
}

func (s *Service) handleCreateWarga(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input wargaForm
	if _, err := s.decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}
	input.trim()

	if input.NIK == "" || input.NamaWarga == "" || input.JenisKelamin == "" || input.StatusDomisili == "" || input.StatusHidup == "" {
		s.writeError(w, r, types.ValidationError("nik, namaWarga, jenisKelamin, statusDomisili, and statusHidup are required"))
		return
	}

	if !types.ValidNIK(input.NIK) {
		s.writeError(w, r, types.ValidationError("nik must be 16 digits"))
		return
	}

	holder, err := s.verification.DescribeHolder(ctx, input.NIK)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if holder != nil {
		s.writeError(w, r, types.ConflictError("NIK already exists", holder))
		return
	}

	jenisKelamin := types.JenisKelamin(input.JenisKelamin)
	if !jenisKelamin.Valid() {
		s.writeError(w, r, types.ValidationError("jenisKelamin must be either Laki-laki or Perempuan"))
		return
	}

	warga := &types.Warga{
		NIK:            input.NIK,
		NamaWarga:      input.NamaWarga,
		JenisKelamin:   &jenisKelamin,
		StatusDomisili: input.StatusDomisili,
		StatusHidup:    input.StatusHidup,
		KeluargaID:     utils.NilIfEmpty(input.KeluargaID),
	}

	if err := s.warga.CreateWarga(ctx, warga); err != nil {
		if errors.Is(err, types.ErrDuplicate) {
			err = types.ConflictError("NIK already exists", nil)
		}
		s.writeError(w, r, err)
		return
	}

	s.created(w, "Warga created successfully", warga)
}

type nameChangeView struct {
	ID            string `json:"id"`
	NIK           string `json:"nik"`
	NamaWargaBaru string `json:"namaWarga_baru"`
	FotoKTP       string `json:"foto_ktp"`
	Status        string `json:"status"`
}

func (s *Service) handleUpdateWarga(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, _ := claimsFromContext(ctx)

	existing, err := s.lookupWarga(r, flow.Param(ctx, "nik"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	isAdmin := claims.Role.IsAdmin()
	if !isAdmin && !existing.OwnedBy(claims.UserID) {
		s.writeError(w, r, types.ForbiddenError("You are not authorized to update this warga profile. NIK and userId must match."))
		return
	}

	var input wargaForm
	values, err := s.decodeBody(r, &input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	input.trim()

	keluargaID := optional(values, "keluargaId")
	changingNama := input.NamaWarga != "" && input.NamaWarga != existing.NamaWarga

	// Residents cannot rename themselves directly; the change goes through
	// KTP verification instead.
	if !isAdmin && changingNama {
		document, err := s.uploadedFile(r, "foto_ktp")
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		result, err := s.verification.RequestNameChange(ctx, verification.SubmitInput{
			UserID:         claims.UserID,
			NamaWargaBaru:  input.NamaWarga,
			JenisKelamin:   input.JenisKelamin,
			StatusDomisili: input.StatusDomisili,
			StatusHidup:    input.StatusHidup,
			KeluargaID:     keluargaID,
			Document:       document,
		})
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		message := "Nama change request submitted for verification."
		if input.JenisKelamin != "" || input.StatusDomisili != "" || input.StatusHidup != "" || keluargaID != nil {
			message = "Nama change request submitted for verification. Other field updates will be processed after admin approval."
		}

		s.ok(w, message, nameChangeView{
			ID:            result.Request.ID,
			NIK:           existing.NIK,
			NamaWargaBaru: result.Request.NamaWargaBaru,
			FotoKTP:       result.Request.FotoKTP,
			Status:        string(result.Request.Status),
		})
		return
	}

	updated := *existing
	changed := false

	if changingNama {
		updated.NamaWarga = input.NamaWarga
		changed = true
	}
	if input.JenisKelamin != "" {
		jenisKelamin := types.JenisKelamin(input.JenisKelamin)
		if !jenisKelamin.Valid() {
			s.writeError(w, r, types.ValidationError("jenisKelamin must be either Laki-laki or Perempuan"))
			return
		}
		updated.JenisKelamin = &jenisKelamin
		changed = true
	}
	if input.StatusDomisili != "" {
		updated.StatusDomisili = input.StatusDomisili
		changed = true
	}
	if input.StatusHidup != "" {
		updated.StatusHidup = input.StatusHidup
		changed = true
	}
	if keluargaID != nil {
		updated.KeluargaID = utils.NilIfEmpty(*keluargaID)
		changed = true
	}

	if !changed {
		s.writeError(w, r, types.ValidationError("No valid fields to update"))
		return
	}

	if err := s.warga.UpdateWarga(ctx, existing.NIK, &updated); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"nik":     existing.NIK,
		"user_id": claims.UserID,
	}).Info("warga updated")

	s.ok(w, "Warga updated successfully", &updated)
}

func (s *Service) handleDeleteWarga(w http.ResponseWriter, r *http.Request) {
	nik := flow.Param(r.Context(), "nik")

	if err := s.warga.DeleteWarga(r.Context(), nik); err != nil {
		if errors.Is(err, types.ErrWargaNotFound) {
			err = types.NotFoundError("Warga not found", err)
		}
		s.writeError(w, r, err)
		return
	}

	s.ok(w, "Warga deleted successfully", nil)
}

type selfRegisterView struct {
	VerificationID      string `json:"verification_id"`
	FotoKTP             string `json:"foto_ktp"`
	IsAssignmentRequest bool   `json:"isAssignmentRequest"`
	Note                string `json:"note"`
}

func (s *Service) handleSelfRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, _ := claimsFromContext(ctx)

	var input wargaForm
	values, err := s.decodeBody(r, &input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	input.trim()

	document, err := s.uploadedFile(r, "foto_ktp")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.verification.SelfRegister(ctx, verification.SubmitInput{
		UserID:         claims.UserID,
		NIKBaru:        input.NIK,
		NamaWargaBaru:  input.NamaWarga,
		JenisKelamin:   input.JenisKelamin,
		StatusDomisili: input.StatusDomisili,
		StatusHidup:    input.StatusHidup,
		KeluargaID:     optional(values, "keluargaId"),
		Document:       document,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	view := selfRegisterView{
		VerificationID: result.Request.ID,
		FotoKTP:        result.Request.FotoKTP,
	}

	message := "Profile created with pending status. Admin will review your KTP."
	view.Note = "Your profile status will be updated after admin approval"
	if result.Shape.Kind == verification.KindAssignment {
		message = "Assignment request submitted. Admin will review and assign this NIK to your account."
		view.IsAssignmentRequest = true
		view.Note = "This NIK exists but not assigned. Admin will verify and assign it to you."
	}

	s.created(w, message, view)
}

func (s *Service) lookupWarga(r *http.Request, nik string) (*types.Warga, error) {
	warga, err := s.warga.WargaByNIK(r.Context(), nik)
	if err != nil {
		if errors.Is(err, types.ErrWargaNotFound) {
			return nil, types.NotFoundError("Warga not found", err)
		}
		return nil, err
	}
	return warga, nil
}
