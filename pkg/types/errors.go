package types

import (
	"errors"
	"net/http"
)

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrWargaNotFound            = errors.New("warga not found")
	ErrKeluargaNotFound         = errors.New("keluarga not found")
	ErrRumahNotFound            = errors.New("rumah not found")
	ErrVerificationNotFound     = errors.New("verification request not found")
	ErrMarketPlaceItemNotFound  = errors.New("marketplace item not found")
	ErrDuplicate                = errors.New("duplicate key")
	ErrAlreadyProcessed         = errors.New("verification request has already been processed")
	ErrInvalidToken             = errors.New("invalid token")
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrPendingVerificationExist = errors.New("pending verification request exists")
)

// ErrUnknownKeluarga is returned by resident writes whose keluargaId names no
// household.
var ErrUnknownKeluarga = ValidationError("keluargaId does not exist")

// ErrorKind classifies failures the API surfaces to callers.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindUpstream
)

func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// AppError is an error with a caller facing message. Details is rendered
// alongside the message, e.g. the record a conflict collided with.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
	Details any
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func ValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

func UnauthorizedError(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func ForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func NotFoundError(message string, err error) *AppError {
	return &AppError{Kind: KindNotFound, Message: message, Err: err}
}

func ConflictError(message string, details any) *AppError {
	return &AppError{Kind: KindConflict, Message: message, Details: details}
}

func UpstreamError(message string, err error) *AppError {
	return &AppError{Kind: KindUpstream, Message: message, Err: err}
}

func InternalError(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// KindOf returns the kind of the first AppError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// NIKConflict describes the resident already holding a NIK.
type NIKConflict struct {
	NIK       string        `json:"nik"`
	NamaWarga string        `json:"namaWarga"`
	Status    *WargaStatus  `json:"status"`
	User      *ConflictUser `json:"user"`
	Note      string        `json:"note,omitempty"`
}

type ConflictUser struct {
	ID    string `json:"id"`
	Nama  string `json:"nama"`
	Email string `json:"email"`
}
