package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"jawara/internal/utils"
	"jawara/pkg/types"

	"github.com/alexedwards/flow"
)

type rumahForm struct {
	StatusKepemilikan string `form:"statusKepemilikan"`
	Alamat            string `form:"alamat"`
	JumlahPenghuni    string `form:"jumlahPenghuni"`
}

func (s *Service) handleListRumah(w http.ResponseWriter, r *http.Request) {
	rumah, err := s.rumah.AllRumah(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, "Rumah retrieved successfully", rumah)
}

func (s *Service) handleGetRumah(w http.ResponseWriter, r *http.Request) {
	rumah, err := s.lookupRumah(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, "Rumah retrieved successfully", rumah)
}

func (s *Service) handleCreateRumah(w http.ResponseWriter, r *http.Request) {
	var input rumahForm
	values, err := s.decodeBody(r, &input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	alamat := strings.TrimSpace(input.Alamat)
	if input.StatusKepemilikan == "" || alamat == "" || strings.TrimSpace(input.JumlahPenghuni) == "" {
		s.writeError(w, r, types.ValidationError("statusKepemilikan, alamat, and jumlahPenghuni are required"))
		return
	}

	status := types.StatusKepemilikan(input.StatusKepemilikan)
	if !status.Valid() {
		s.writeError(w, r, types.ValidationError("statusKepemilikan must be either milik_sendiri or kontrak"))
		return
	}

	penghuni, err := parsePenghuni(input.JumlahPenghuni)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rumah := &types.Rumah{
		StatusKepemilikan: status,
		Alamat:            alamat,
		JumlahPenghuni:    penghuni,
		KeluargaID:        utils.NilIfEmpty(values.Get("keluargaId")),
	}

	if err := s.rumah.CreateRumah(r.Context(), rumah); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.created(w, "Rumah created successfully", rumah)
}

func (s *Service) handleUpdateRumah(w http.ResponseWriter, r *http.Request) {
	existing, err := s.lookupRumah(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var input rumahForm
	values, err := s.decodeBody(r, &input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	updated := *existing
	if input.StatusKepemilikan != "" {
		status := types.StatusKepemilikan(input.StatusKepemilikan)
		if !status.Valid() {
			s.writeError(w, r, types.ValidationError("statusKepemilikan must be either milik_sendiri or kontrak"))
			return
		}
		updated.StatusKepemilikan = status
	}
	if alamat := strings.TrimSpace(input.Alamat); alamat != "" {
		updated.Alamat = alamat
	}
	if values.Has("jumlahPenghuni") {
		updated.JumlahPenghuni, err = parsePenghuni(input.JumlahPenghuni)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if keluargaID := optional(values, "keluargaId"); keluargaID != nil {
		updated.KeluargaID = utils.NilIfEmpty(*keluargaID)
	}

	if err := s.rumah.UpdateRumah(r.Context(), existing.ID, &updated); err != nil {
		s.writeError(w, r, rumahError(err))
		return
	}

	s.ok(w, "Rumah updated successfully", &updated)
}

func (s *Service) handleDeleteRumah(w http.ResponseWriter, r *http.Request) {
	if err := s.rumah.DeleteRumah(r.Context(), flow.Param(r.Context(), "id")); err != nil {
		s.writeError(w, r, rumahError(err))
		return
	}

	s.ok(w, "Rumah deleted successfully", nil)
}

func (s *Service) lookupRumah(r *http.Request) (*types.Rumah, error) {
	rumah, err := s.rumah.Rumah(r.Context(), flow.Param(r.Context(), "id"))
	if err != nil {
		return nil, rumahError(err)
	}
	return rumah, nil
}

func rumahError(err error) error {
	if errors.Is(err, types.ErrRumahNotFound) {
		return types.NotFoundError("Rumah not found", err)
	}
	return err
}

func parsePenghuni(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, types.ValidationError("jumlahPenghuni must be a non-negative number")
	}
	return n, nil
}
