package slave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// Config holds configuration parameters for starting a player.
type Config struct {
	Path            string        // player binary, default "mplayer"
	Args            []string      // extra arguments, e.g. files to play
	Delimiter       string        // default "\n"
	ResponseTimeout time.Duration // see Options.ResponseTimeout
	Logger          *slog.Logger
}

// DefaultPlayer is the binary started when Config.Path is empty.
const DefaultPlayer = "mplayer"

// slaveArgs put MPlayer into slave mode, keep it alive with an empty
// playlist, and silence most of its chatter.
var slaveArgs = []string{"-slave", "-idle", "-quiet"}

// Process is a running player together with the Session bound to its
// stdin and stdout.
type Process struct {
	*Session

	cmd    *exec.Cmd
	exited chan struct{}
	err    error
	logger *slog.Logger
}

// Start spawns the player in slave mode and opens a Session on its pipes.
func Start(cfg Config) (*Process, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPlayer
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	inR, inW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		inR.Close()
		inW.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	args := append(append([]string{}, slaveArgs...), cfg.Args...)
	cmd := exec.Command(path, args...)
	cmd.Stdin = inR
	cmd.Stdout = outW

	if err := cmd.Start(); err != nil {
		for _, f := range []*os.File{inR, inW, outR, outW} {
			f.Close()
		}
		return nil, fmt.Errorf("start %s: %w", path, err)
	}
	// The child holds its own copies now.
	inR.Close()
	outW.Close()

	stream, err := NewFileStream(inW, outR, cfg.Delimiter)
	if err != nil {
		inW.Close()
		outR.Close()
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}

	logger.Info("slave player started", "path", path, "pid", cmd.Process.Pid)

	p := &Process{
		Session: NewSession(stream, Options{ResponseTimeout: cfg.ResponseTimeout, Logger: logger}),
		cmd:     cmd,
		exited:  make(chan struct{}),
		logger:  logger,
	}
	go func() {
		p.err = cmd.Wait()
		logger.Info("slave player exited", "pid", cmd.Process.Pid, "err", p.err)
		close(p.exited)
	}()
	return p, nil
}

// Pid returns the player's process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Exited is closed once the player process has exited.
func (p *Process) Exited() <-chan struct{} {
	return p.exited
}

// Wait blocks until the player exits and returns its exit error.
func (p *Process) Wait() error {
	<-p.exited
	return p.err
}

// Quit asks the player to exit, closes the session and waits. If ctx ends
// first the player is killed.
func (p *Process) Quit(ctx context.Context) error {
	if _, err := p.Send(NewCommand("quit")); err != nil && !errors.Is(err, ErrSessionClosed) {
		p.logger.Debug("slave quit not delivered", "err", err)
	}
	p.Close()

	select {
	case <-p.exited:
		return p.err
	case <-ctx.Done():
		p.logger.Warn("slave player did not exit, killing", "pid", p.Pid())
		_ = p.cmd.Process.Kill()
		<-p.exited
		return ctx.Err()
	}
}
