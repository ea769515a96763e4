package types

import "time"

type Keluarga struct {
	ID               string    `db:"id" json:"id"`
	NamaKeluarga     string    `db:"nama_keluarga" json:"namaKeluarga"`
	JumlahAnggota    int       `db:"jumlah_anggota" json:"jumlahAnggota"`
	RumahID          *string   `db:"rumah_id" json:"rumahId"`
	KepalaKeluargaID *string   `db:"kepala_keluarga_id" json:"kepala_Keluarga_Id"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
