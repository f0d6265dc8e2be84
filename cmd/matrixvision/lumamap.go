package main

import (
	"errors"

	"github.com/codegangsta/cli"
	"github.com/kevin-cantwell/matrixvision"
)

func lumamap(c *cli.Context) error {
	if c.NArg() != 2 {
		return exit(errors.New("usage: matrixvision lumamap IMAGE OUT.png"))
	}
	s, err := loadSettings(c)
	if err != nil {
		return exit(err)
	}
	data, err := readInput(c.Args().Get(0))
	if err != nil {
		return exit(err)
	}
	lm, err := matrixvision.DecodeLuminance(data, s.cfg)
	if err != nil {
		return exit(err)
	}
	out := c.Args().Get(1)
	if err := matrixvision.SaveLuminanceMap(out, lm, s.cfg.CellWidth, s.cfg.CellHeight); err != nil {
		return exit(err)
	}
	s.logger.Printf("wrote %s (%dx%d cells, %d levels)", out, lm.Cols(), lm.Rows(), lm.Levels())
	return nil
}
