package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusAccepted VerificationStatus = "accepted"
	VerificationStatusRejected VerificationStatus = "rejected"
)

// CanTransitionTo reports whether a request may move from s to next.
// pending -> accepted | rejected only; both are terminal.
func (s VerificationStatus) CanTransitionTo(next VerificationStatus) bool {
	if s != VerificationStatusPending {
		return false
	}
	return next == VerificationStatusAccepted || next == VerificationStatusRejected
}

// VerificationExtra carries the resident fields a request proposes beyond
// NIK and name, plus the flags describing the request shape. Stored as jsonb.
type VerificationExtra struct {
	JenisKelamin        *JenisKelamin `json:"jenisKelamin,omitempty"`
	StatusDomisili      *string       `json:"statusDomisili,omitempty"`
	StatusHidup         *string       `json:"statusHidup,omitempty"`
	KeluargaID          *string       `json:"keluargaId,omitempty"`
	IsNewRegistration   bool          `json:"isNewRegistration"`
	IsAssignmentRequest bool          `json:"isAssignmentRequest"`
}

func (e VerificationExtra) Value() (driver.Value, error) {
	return json.Marshal(e)
}

func (e *VerificationExtra) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*e = VerificationExtra{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported extra_data type %T", src)
	}

	*e = VerificationExtra{}
	if len(raw) == 0 {
		return nil
	}

	return json.Unmarshal(raw, e)
}

// VerificationRequest is one identity change transaction for a resident.
// WargaID is nil for a brand-new registration.
type VerificationRequest struct {
	ID            string             `db:"id" json:"id"`
	WargaID       *string            `db:"warga_id" json:"warga_id"`
	UserID        string             `db:"user_id" json:"user_id"`
	NIKBaru       string             `db:"nik_baru" json:"nik_baru"`
	NamaWargaBaru string             `db:"nama_warga_baru" json:"namaWarga_baru"`
	FotoKTP       string             `db:"foto_ktp" json:"foto_ktp"`
	Status        VerificationStatus `db:"status" json:"status"`
	ExtraData     VerificationExtra  `db:"extra_data" json:"extra_data"`
	VerifiedBy    *string            `db:"verified_by" json:"verified_by"`
	VerifiedAt    *time.Time         `db:"verified_at" json:"verified_at"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
}

func (v *VerificationRequest) IsPending() bool {
	return v.Status == VerificationStatusPending
}

// Resolve moves a pending request to its terminal status and stamps the
// resolving admin. It fails if the request was already resolved.
func (v *VerificationRequest) Resolve(status VerificationStatus, adminID string, now time.Time) error {
	if !v.Status.CanTransitionTo(status) {
		return ErrAlreadyProcessed
	}

	v.Status = status
	v.VerifiedBy = &adminID
	v.VerifiedAt = &now
	return nil
}
