package types

import "time"

type MarketPlaceItem struct {
	ID         string    `db:"id" json:"id"`
	NamaProduk string    `db:"nama_produk" json:"namaProduk"`
	Harga      float64   `db:"harga" json:"harga"`
	Deskripsi  string    `db:"deskripsi" json:"deskripsi"`
	Gambar     *string   `db:"gambar" json:"gambar"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
