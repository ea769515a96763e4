package types

import (
	"slices"
	"time"
)

type Role string

const (
	RoleAdminSistem Role = "adminSistem"
	RoleKetuaRT     Role = "ketuaRT"
	RoleKetuaRW     Role = "ketuaRW"
	RoleBendahara   Role = "bendahara"
	RoleSekretaris  Role = "sekretaris"
	RoleWarga       Role = "warga"
)

var AllRoles = []Role{RoleAdminSistem, RoleKetuaRT, RoleKetuaRW, RoleBendahara, RoleSekretaris, RoleWarga}

// AdminRoles may manage residents, households, dwellings and resolve
// verification requests.
var AdminRoles = []Role{RoleAdminSistem, RoleKetuaRT, RoleKetuaRW}

func (r Role) Valid() bool {
	return slices.Contains(AllRoles, r)
}

func (r Role) IsAdmin() bool {
	return slices.Contains(AdminRoles, r)
}

// User is an account. Password holds the bcrypt hash and never leaves the API.
type User struct {
	ID           string    `db:"id" json:"id"`
	Nama         string    `db:"nama" json:"nama"`
	Email        string    `db:"email" json:"email"`
	Password     string    `db:"password" json:"-"`
	NomorTelefon *string   `db:"nomor_telefon" json:"nomor_telefon"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
