package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

// LineEditor reads REPL input with line editing and history when stdin is a
// terminal, and plain lines otherwise (pipes, scripts).
type LineEditor struct {
	rl      *readline.Instance
	scanner *bufio.Scanner
}

// NewLineEditor falls back to plain input if readline cannot be set up.
func NewLineEditor(historyFile string, historySize int, stderr io.Writer) *LineEditor {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return &LineEditor{scanner: bufio.NewScanner(os.Stdin)}
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryFile:            historyFile,
		HistoryLimit:           historySize,
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		fmt.Fprintf(stderr, "warning: readline init failed (%v), using basic input\n", err)
		return &LineEditor{scanner: bufio.NewScanner(os.Stdin)}
	}
	return &LineEditor{rl: rl}
}

// newScriptEditor reads commands from r without prompting.
func newScriptEditor(r io.Reader) *LineEditor {
	return &LineEditor{scanner: bufio.NewScanner(r)}
}

// GetLine returns the next input line, or io.EOF on end of input or Ctrl-C.
// The prompt is only shown on a terminal.
func (le *LineEditor) GetLine(prompt string) (string, error) {
	if le.rl == nil {
		if !le.scanner.Scan() {
			if err := le.scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return le.scanner.Text(), nil
	}

	le.rl.SetPrompt(prompt)
	line, err := le.rl.Readline()
	if err != nil {
		if err == readline.ErrInterrupt {
			return "", io.EOF
		}
		return "", err
	}
	if trimmed := strings.TrimSpace(line); trimmed != "" {
		le.rl.SaveToHistory(trimmed)
	}
	return line, nil
}

// Close restores the terminal.
func (le *LineEditor) Close() error {
	if le.rl != nil {
		return le.rl.Close()
	}
	return nil
}
