package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"jawara/internal/verification"
	"jawara/pkg/types"
)

// envelope is the shape of every API response.
type envelope struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	Data             any    `json:"data,omitempty"`
	Error            string `json:"error,omitempty"`
	Conflict         any    `json:"conflict,omitempty"`
	ValidationResult any    `json:"validationResult,omitempty"`
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Service) ok(w http.ResponseWriter, message string, data any) {
	s.writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func (s *Service) created(w http.ResponseWriter, message string, data any) {
	s.writeJSON(w, http.StatusCreated, envelope{Success: true, Message: message, Data: data})
}

// writeError renders err in the envelope. Errors without an AppError in
// their chain are logged and reported as a generic 500.
func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		appErr = types.InternalError(err)
	}

	body := envelope{Message: appErr.Message, Conflict: appErr.Details}

	entry := s.logger.WithError(err).WithField("path", r.URL.Path)
	switch appErr.Kind {
	case types.KindInternal:
		entry.Error("request failed")
	case types.KindUpstream:
		entry.Warn("upstream failure")
		if appErr.Err != nil {
			body.Error = appErr.Err.Error()
		}
	default:
		entry.Debug("request rejected")
	}

	s.writeJSON(w, appErr.Kind.HTTPStatus(), body)
}

// formValues reads the request body into url.Values whatever its encoding.
// JSON scalars are stringified so one form decoder serves every handler; a
// JSON null becomes an empty value, which clears nullable references.
func (s *Service) formValues(r *http.Request) (url.Values, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(s.config.MaxUploadBytes()); err != nil {
			return nil, types.ValidationError("Invalid multipart form")
		}
		return url.Values(r.MultipartForm.Value), nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, types.ValidationError("Invalid form body")
		}
		return r.PostForm, nil
	case "application/json":
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, types.ValidationError("Invalid JSON body")
		}

		values := make(url.Values, len(raw))
		for key, value := range raw {
			switch v := value.(type) {
			case nil:
				values.Set(key, "")
			case string:
				values.Set(key, v)
			case float64:
				values.Set(key, strconv.FormatFloat(v, 'f', -1, 64))
			case bool:
				values.Set(key, strconv.FormatBool(v))
			default:
				return nil, types.ValidationError(fmt.Sprintf("%s must be a scalar value", key))
			}
		}
		return values, nil
	}

	return url.Values{}, nil
}

// decodeBody decodes the request body onto dst and returns the raw values
// so callers can tell an absent field from an empty one.
func (s *Service) decodeBody(r *http.Request, dst any) (url.Values, error) {
	values, err := s.formValues(r)
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(dst, values); err != nil {
		return nil, types.ValidationError("Invalid request body")
	}

	return values, nil
}

// uploadedFile returns the named multipart file, or nil when none was sent.
// formValues must have parsed the multipart form first.
func (s *Service) uploadedFile(r *http.Request, field string) (*verification.Document, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, nil
	}

	header := r.MultipartForm.File[field][0]
	if header.Size > s.config.MaxUploadBytes() {
		return nil, types.ValidationError(fmt.Sprintf("%s must be at most %d MB", field, s.config.MaxUploadMB))
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded %s: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded %s: %w", field, err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &verification.Document{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

// optional returns a pointer to the field's value when it was sent at all.
func optional(values url.Values, key string) *string {
	if !values.Has(key) {
		return nil
	}
	v := values.Get(key)
	return &v
}
