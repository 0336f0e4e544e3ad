package mplayer

import (
	shellquote "github.com/kballard/go-shellquote"
)

// Quote escapes s so the player parses it as a single argument. Every
// user-supplied path must go through Quote before it is put on a command
// line; Session writes command text verbatim.
func Quote(s string) string {
	return shellquote.Join(s)
}
