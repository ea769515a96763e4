package main

import (
	"errors"

	"jawara/internal/db/migrate"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Apply or roll back the database schema",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "direction",
			Aliases: []string{"d"},
			Usage:   "up or down",
			Value:   migrate.DirectionUp,
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		direction := c.String("direction")
		err = migrate.Run(cfg.DatabaseURL, direction)
		if errors.Is(err, migrate.ErrNoChange) {
			logrus.WithField("direction", direction).Info("schema already up to date")
			return nil
		}
		if err != nil {
			return err
		}

		logrus.WithField("direction", direction).Info("migrations applied")
		return nil
	},
}
