package main

import (
	"errors"
	"fmt"
	"io"

	"jawara/internal/utils"

	"github.com/urfave/cli/v2"
)

var nanoidCommand = &cli.Command{
	Name:  "nanoid",
	Usage: "Print row ids for keluarga, rumah, marketplace and seed fixtures",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"c"},
			Usage:   "Number of ids to print",
			Value:   1,
		},
		&cli.IntFlag{
			Name:    "size",
			Aliases: []string{"s"},
			Usage:   "Length of each id; the seed fixtures use 32",
			Value:   utils.NanoidSize,
		},
	},
	Action: func(c *cli.Context) error {
		return printIDs(c.App.Writer, c.Int("count"), c.Int("size"))
	},
}

func printIDs(w io.Writer, count, size int) error {
	if count < 1 {
		return errors.New("count must be at least 1")
	}
	if size < 1 {
		return errors.New("size must be at least 1")
	}

	for range count {
		if _, err := fmt.Fprintln(w, utils.NanoIDSize(size)); err != nil {
			return err
		}
	}
	return nil
}
