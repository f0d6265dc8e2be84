//go:build !windows && !plan9

package main

import (
	"os"

	"golang.org/x/sys/unix"
)

// getTerminalSize asks stderr's terminal for its size, since stdout may be
// redirected while the preview still goes to the screen.
func getTerminalSize() (cols, lines int, err error) {
	ws, err := unix.IoctlGetWinsize(int(os.Stderr.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return -1, -1, err
	}
	return int(ws.Col), int(ws.Row), nil
}
