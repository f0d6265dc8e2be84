//go:build windows || plan9

package main

import (
	"os"

	"golang.org/x/crypto/ssh/terminal"
)

func getTerminalSize() (cols, lines int, err error) {
	return terminal.GetSize(int(os.Stdout.Fd()))
}
