package main

import (
	"context"
	"fmt"

	"jawara/internal/db"
	"jawara/internal/seed"
	"jawara/internal/store"

	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with an admin account and sample data",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "admin-email",
			Usage:   "Email of the seeded admin account",
			EnvVars: []string{"SEED_ADMIN_EMAIL"},
			Value:   "admin@jawara.local",
		},
		&cli.StringFlag{
			Name:     "admin-password",
			Usage:    "Password of the seeded admin account",
			EnvVars:  []string{"SEED_ADMIN_PASSWORD"},
			Required: true,
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger := newLogger(cfg)

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		seeder := seed.New(
			logger,
			store.NewUserRepository(pool),
			store.NewWargaRepository(pool),
			store.NewKeluargaRepository(pool),
			store.NewRumahRepository(pool),
		)

		return seeder.Run(ctx, seed.AdminAccount{
			Email:      c.String("admin-email"),
			Password:   c.String("admin-password"),
			BcryptCost: cfg.BcryptCost,
		})
	},
}
