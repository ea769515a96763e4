package seed

import (
	"context"
	"errors"
	"fmt"

	"jawara/internal/auth"
	"jawara/internal/utils"
	"jawara/pkg/types"

	"github.com/sirupsen/logrus"
)

// Fixed ids so the seed can run repeatedly. Generate new ones with
// `go run ./cmd/jawara nanoid --size 32`.
const (
	AdminUserID      = "jw7Qm2xKp4LrT9vBn3cYd8HsZe6UaF1o"
	SampleRumahID    = "Rk4pV8nW2qXz6LmT0bJc9YhDs3GfEa7u"
	SampleKeluargaID = "Kf5tB1rN7wQe3ZxM8cLv2HjSa6PdYg0k"

	// SampleNIK belongs to a resident with no account so an assignment
	// request can be exercised right after seeding.
	SampleNIK = "3374010101800001"
)

type Users interface {
	User(ctx context.Context, userID string) (*types.User, error)
	Create(ctx context.Context, user *types.User) error
}

type Residents interface {
	WargaByNIK(ctx context.Context, nik string) (*types.Warga, error)
	CreateWarga(ctx context.Context, warga *types.Warga) error
}

type Households interface {
	Keluarga(ctx context.Context, id string) (*types.Keluarga, error)
	CreateKeluarga(ctx context.Context, keluarga *types.Keluarga) error
}

type Dwellings interface {
	Rumah(ctx context.Context, id string) (*types.Rumah, error)
	CreateRumah(ctx context.Context, rumah *types.Rumah) error
}

type Seeder struct {
	logger   logrus.FieldLogger
	users    Users
	warga    Residents
	keluarga Households
	rumah    Dwellings
}

func New(logger logrus.FieldLogger, users Users, warga Residents, keluarga Households, rumah Dwellings) *Seeder {
	return &Seeder{logger: logger, users: users, warga: warga, keluarga: keluarga, rumah: rumah}
}

type AdminAccount struct {
	Email      string
	Password   string
	BcryptCost int
}

// Run inserts every fixture that does not exist yet. Existing rows are left
// alone.
func (s *Seeder) Run(ctx context.Context, admin AdminAccount) error {
	if err := s.seedAdmin(ctx, admin); err != nil {
		return err
	}
	if err := s.seedRumah(ctx); err != nil {
		return err
	}
	if err := s.seedKeluarga(ctx); err != nil {
		return err
	}
	return s.seedWarga(ctx)
}

func (s *Seeder) seedAdmin(ctx context.Context, admin AdminAccount) error {
	_, err := s.users.User(ctx, AdminUserID)
	if err == nil {
		s.logger.WithField("user_id", AdminUserID).Info("admin account already seeded")
		return nil
	}
	if !errors.Is(err, types.ErrUserNotFound) {
		return fmt.Errorf("failed to fetch admin account: %w", err)
	}

	if admin.Email == "" || admin.Password == "" {
		return errors.New("admin email and password are required")
	}

	hash, err := auth.HashPassword(admin.Password, admin.BcryptCost)
	if err != nil {
		return err
	}

	user := &types.User{
		ID:       AdminUserID,
		Nama:     "Admin Sistem",
		Email:    admin.Email,
		Password: hash,
		Role:     types.RoleAdminSistem,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	s.logger.WithField("email", user.Email).Info("admin account seeded")
	return nil
}

func (s *Seeder) seedRumah(ctx context.Context) error {
	_, err := s.rumah.Rumah(ctx, SampleRumahID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, types.ErrRumahNotFound) {
		return fmt.Errorf("failed to fetch sample rumah: %w", err)
	}

	rumah := &types.Rumah{
		ID:                SampleRumahID,
		StatusKepemilikan: types.MilikSendiri,
		Alamat:            "Jl. Mawar No. 1, RT 01/RW 02",
		JumlahPenghuni:    4,
	}
	if err := s.rumah.CreateRumah(ctx, rumah); err != nil {
		return fmt.Errorf("failed to create sample rumah: %w", err)
	}

	s.logger.WithField("rumah_id", rumah.ID).Info("sample rumah seeded")
	return nil
}

func (s *Seeder) seedKeluarga(ctx context.Context) error {
	_, err := s.keluarga.Keluarga(ctx, SampleKeluargaID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, types.ErrKeluargaNotFound) {
		return fmt.Errorf("failed to fetch sample keluarga: %w", err)
	}

	keluarga := &types.Keluarga{
		ID:            SampleKeluargaID,
		NamaKeluarga:  "Keluarga Santoso",
		JumlahAnggota: 4,
		RumahID:       utils.StringPtr(SampleRumahID),
	}
	if err := s.keluarga.CreateKeluarga(ctx, keluarga); err != nil {
		return fmt.Errorf("failed to create sample keluarga: %w", err)
	}

	s.logger.WithField("keluarga_id", keluarga.ID).Info("sample keluarga seeded")
	return nil
}

func (s *Seeder) seedWarga(ctx context.Context) error {
	_, err := s.warga.WargaByNIK(ctx, SampleNIK)
	if err == nil {
		return nil
	}
	if !errors.Is(err, types.ErrWargaNotFound) {
		return fmt.Errorf("failed to fetch sample warga: %w", err)
	}

	jk := types.LakiLaki
	warga := &types.Warga{
		NIK:            SampleNIK,
		NamaWarga:      "Budi Santoso",
		JenisKelamin:   &jk,
		StatusDomisili: "tetap",
		StatusHidup:    "hidup",
		KeluargaID:     utils.StringPtr(SampleKeluargaID),
	}
	if err := s.warga.CreateWarga(ctx, warga); err != nil {
		return fmt.Errorf("failed to create sample warga: %w", err)
	}

	s.logger.WithField("nik", warga.NIK).Info("sample warga seeded")
	return nil
}
