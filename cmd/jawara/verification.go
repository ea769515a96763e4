package main

import (
	"context"
	"fmt"

	"jawara/internal/db"
	"jawara/internal/storage"
	"jawara/pkg/types"

	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v2"
)

var verificationCommand = &cli.Command{
	Name:  "verification",
	Usage: "Inspect KTP verification requests",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "Print verification requests, newest first",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "pending",
					Usage: "Only show requests awaiting review",
				},
			},
			Action: listVerifications,
		},
	},
}

func listVerifications(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	buckets, err := storage.NewBuckets(ctx, cfg)
	if err != nil {
		return err
	}

	svc := newVerificationService(logger, newRepositories(pool), buckets.Verification, nil)

	var requests []*types.VerificationRequest
	if c.Bool("pending") {
		requests, err = svc.Pending(ctx)
	} else {
		requests, err = svc.All(ctx)
	}
	if err != nil {
		return err
	}

	if len(requests) == 0 {
		fmt.Println("no verification requests")
		return nil
	}

	_, err = pp.Println(requests)
	return err
}
