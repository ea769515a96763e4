package types

import "time"

type StatusKepemilikan string

const (
	MilikSendiri StatusKepemilikan = "milik_sendiri"
	Kontrak      StatusKepemilikan = "kontrak"
)

func (s StatusKepemilikan) Valid() bool {
	return s == MilikSendiri || s == Kontrak
}

// Rumah is a dwelling.
type Rumah struct {
	ID                string            `db:"id" json:"id"`
	StatusKepemilikan StatusKepemilikan `db:"status_kepemilikan" json:"statusKepemilikan"`
	Alamat            string            `db:"alamat" json:"alamat"`
	JumlahPenghuni    int               `db:"jumlah_penghuni" json:"jumlahPenghuni"`
	KeluargaID        *string           `db:"keluarga_id" json:"keluargaId"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}
