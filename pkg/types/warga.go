package types

import (
	"regexp"
	"time"
)

type JenisKelamin string

const (
	LakiLaki  JenisKelamin = "Laki-laki"
	Perempuan JenisKelamin = "Perempuan"
)

func (j JenisKelamin) Valid() bool {
	return j == LakiLaki || j == Perempuan
}

var nikPattern = regexp.MustCompile(`^\d{16}$`)

// ValidNIK reports whether nik is a 16 digit national identity number.
func ValidNIK(nik string) bool {
	return nikPattern.MatchString(nik)
}

// WargaStatus is the verification state of a resident record. The zero
// value means the record was never submitted for verification.
type WargaStatus string

const (
	WargaStatusUnset    WargaStatus = ""
	WargaStatusPending  WargaStatus = "pending"
	WargaStatusAccepted WargaStatus = "accepted"
	WargaStatusRejected WargaStatus = "rejected"
)

// CanTransitionTo reports whether a resident may move from s to next.
// A resident under review can only be resolved; any settled resident
// may go back under review.
func (s WargaStatus) CanTransitionTo(next WargaStatus) bool {
	switch next {
	case WargaStatusPending:
		return s != WargaStatusPending
	case WargaStatusAccepted, WargaStatusRejected:
		return true
	}
	return false
}

// Warga is a resident, keyed by NIK.
type Warga struct {
	NIK            string        `db:"nik" json:"nik"`
	NamaWarga      string        `db:"nama_warga" json:"namaWarga"`
	JenisKelamin   *JenisKelamin `db:"jenis_kelamin" json:"jenisKelamin"`
	StatusDomisili string        `db:"status_domisili" json:"statusDomisili"`
	StatusHidup    string        `db:"status_hidup" json:"statusHidup"`
	KeluargaID     *string       `db:"keluarga_id" json:"keluargaId"`
	UserID         *string       `db:"user_id" json:"userId"`
	Status         *WargaStatus  `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`

	// Joined from keluarga on reads.
	NamaKeluarga *string `db:"nama_keluarga" write:"-" json:"namaKeluarga,omitempty"`
}

func (w *Warga) CurrentStatus() WargaStatus {
	if w.Status == nil {
		return WargaStatusUnset
	}
	return *w.Status
}

func (w *Warga) SetStatus(status WargaStatus) {
	w.Status = &status
}

func (w *Warga) HasOwner() bool {
	return w.UserID != nil && *w.UserID != ""
}

func (w *Warga) OwnedBy(userID string) bool {
	return w.HasOwner() && *w.UserID == userID
}
