package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"jawara/internal/storage"
	"jawara/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/sirupsen/logrus"
)

type itemForm struct {
	NamaProduk string `form:"namaProduk"`
	Harga      string `form:"harga"`
	Deskripsi  string `form:"deskripsi"`
}

func (s *Service) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.marketplace.AllItems(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, "Marketplace items retrieved successfully", items)
}

func (s *Service) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.lookupItem(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, "Marketplace item retrieved successfully", item)
}

// handleCreateItem lists a product only if the classifier judges its photo
// clean. The photo is stored before the row is written.
func (s *Service) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input itemForm
	if _, err := s.decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	image, err := s.uploadedFile(r, "gambar")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	nama := strings.TrimSpace(input.NamaProduk)
	deskripsi := strings.TrimSpace(input.Deskripsi)
	if nama == "" || strings.TrimSpace(input.Harga) == "" || deskripsi == "" || image == nil {
		s.writeError(w, r, types.ValidationError("namaProduk, harga, deskripsi, and gambar are required"))
		return
	}

	harga, err := parseHarga(input.Harga)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	verdict, err := s.classifier.Classify(ctx, image.Filename, image.ContentType, image.Data)
	if err != nil {
		s.writeError(w, r, types.UpstreamError("Failed to validate image cleanliness", err))
		return
	}

	if !verdict.Clean() {
		s.writeJSON(w, http.StatusBadRequest, envelope{
			Message:          "Image rejected: Product appears to be dirty or unclean",
			ValidationResult: verdict.Raw,
		})
		return
	}

	name := storage.MarketplaceObjectName(image.Filename, s.now())
	key, err := s.images.UploadFile(ctx, name, bytes.NewReader(image.Data), image.ContentType)
	if err != nil {
		s.writeError(w, r, types.UpstreamError("Failed to upload image", err))
		return
	}
	url := s.images.GetPublicURL(key)

	item := &types.MarketPlaceItem{
		NamaProduk: nama,
		Harga:      harga,
		Deskripsi:  deskripsi,
		Gambar:     &url,
	}

	if err := s.marketplace.CreateItem(ctx, item); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, envelope{
		Success:          true,
		Message:          "Marketplace item created successfully",
		Data:             item,
		ValidationResult: verdict.Raw,
	})
}

func (s *Service) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	existing, err := s.lookupItem(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var input itemForm
	values, err := s.decodeBody(r, &input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	updated := *existing
	if nama := strings.TrimSpace(input.NamaProduk); nama != "" {
		updated.NamaProduk = nama
	}
	if values.Has("harga") {
		updated.Harga, err = parseHarga(input.Harga)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if deskripsi := strings.TrimSpace(input.Deskripsi); deskripsi != "" {
		updated.Deskripsi = deskripsi
	}

	if err := s.marketplace.UpdateItem(r.Context(), existing.ID, &updated); err != nil {
		s.writeError(w, r, itemError(err))
		return
	}

	s.ok(w, "Marketplace item updated successfully", &updated)
}

// handleDeleteItem removes the listing. Failing to delete the stored photo
// is logged and does not block the deletion.
func (s *Service) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	item, err := s.lookupItem(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if item.Gambar != nil && *item.Gambar != "" {
		if key, ok := s.images.PathFromURL(*item.Gambar); ok {
			if err := s.images.DeleteFile(ctx, key); err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"item_id": item.ID,
					"object":  key,
				}).Warn("failed to delete marketplace image")
			}
		}
	}

	if err := s.marketplace.DeleteItem(ctx, item.ID); err != nil {
		s.writeError(w, r, itemError(err))
		return
	}

	s.ok(w, "Marketplace item deleted successfully", nil)
}

func (s *Service) lookupItem(r *http.Request) (*types.MarketPlaceItem, error) {
	item, err := s.marketplace.Item(r.Context(), flow.Param(r.Context(), "id"))
	if err != nil {
		return nil, itemError(err)
	}
	return item, nil
}

func itemError(err error) error {
	if errors.Is(err, types.ErrMarketPlaceItemNotFound) {
		return types.NotFoundError("Marketplace item not found", err)
	}
	return err
}

func parseHarga(raw string) (float64, error) {
	harga, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || harga < 0 {
		return 0, types.ValidationError("harga must be a non-negative number")
	}
	return harga, nil
}
