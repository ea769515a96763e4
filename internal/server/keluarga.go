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

type keluargaForm struct {
	NamaKeluarga  string `form:"namaKeluarga"`
	JumlahAnggota string `form:"jumlahAnggota"`
}

func (s *Service) handleListKeluarga(w http.ResponseWriter, r *http.Request) {
	keluarga, err := s.keluarga.AllKeluarga(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, "Keluarga retrieved successfully", keluarga)
}

func (s *Service) handleGetKeluarga(w http.ResponseWriter, r *http.Request) {
	keluarga, err := s.lookupKeluarga(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, "Keluarga retrieved successfully", keluarga)
}

func (s *Service) handleCreateKeluarga(w http.ResponseWriter, r *http.Request) {
	var input keluargaForm
	values, err := s.decodeBody(r, &input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	nama := strings.TrimSpace(input.NamaKeluarga)
	if nama == "" || strings.TrimSpace(input.JumlahAnggota) == "" {
		s.writeError(w, r, types.ValidationError("namaKeluarga and jumlahAnggota are required"))
		return
	}

	jumlah, err := parseAnggota(input.JumlahAnggota)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	keluarga := &types.Keluarga{
		NamaKeluarga:     nama,
		JumlahAnggota:    jumlah,
		RumahID:          utils.NilIfEmpty(values.Get("rumahId")),
		KepalaKeluargaID: utils.NilIfEmpty(values.Get("kepala_Keluarga_Id")),
	}

	if err := s.keluarga.CreateKeluarga(r.Context(), keluarga); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.created(w, "Keluarga created successfully", keluarga)
}

func (s *Service) handleUpdateKeluarga(w http.ResponseWriter, r *http.Request) {
	existing, err := s.lookupKeluarga(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var input keluargaForm
	values, err := s.decodeBody(r, &input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	updated := *existing
	if nama := strings.TrimSpace(input.NamaKeluarga); nama != "" {
		updated.NamaKeluarga = nama
	}
	if strings.TrimSpace(input.JumlahAnggota) != "" {
		updated.JumlahAnggota, err = parseAnggota(input.JumlahAnggota)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if rumahID := optional(values, "rumahId"); rumahID != nil {
		updated.RumahID = utils.NilIfEmpty(*rumahID)
	}
	if kepala := optional(values, "kepala_Keluarga_Id"); kepala != nil {
		updated.KepalaKeluargaID = utils.NilIfEmpty(*kepala)
	}

	if err := s.keluarga.UpdateKeluarga(r.Context(), existing.ID, &updated); err != nil {
		s.writeError(w, r, keluargaError(err))
		return
	}

	s.ok(w, "Keluarga updated successfully", &updated)
}

func (s *Service) handleDeleteKeluarga(w http.ResponseWriter, r *http.Request) {
	if err := s.keluarga.DeleteKeluarga(r.Context(), flow.Param(r.Context(), "id")); err != nil {
		s.writeError(w, r, keluargaError(err))
		return
	}

	s.ok(w, "Keluarga deleted successfully", nil)
}

func (s *Service) lookupKeluarga(r *http.Request) (*types.Keluarga, error) {
	keluarga, err := s.keluarga.Keluarga(r.Context(), flow.Param(r.Context(), "id"))
	if err != nil {
		return nil, keluargaError(err)
	}
	return keluarga, nil
}

func keluargaError(err error) error {
	if errors.Is(err, types.ErrKeluargaNotFound) {
		return types.NotFoundError("Keluarga not found", err)
	}
	return err
}

func parseAnggota(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, types.ValidationError("jumlahAnggota must be a positive number")
	}
	return n, nil
}
