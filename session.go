package slave

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultResponseTimeout bounds the wait for a matching reply when
// Options.ResponseTimeout is zero.
const DefaultResponseTimeout = 2 * time.Second

// Command is a single slave-mode request. It is a value type; the builder
// methods return modified copies.
type Command struct {
	// Text is the pre-formatted command line, without a trailing newline.
	// Callers must quote any user-supplied substrings themselves.
	Text string
	// Match recognises the reply line. A nil Match makes the command
	// fire-and-forget.
	Match *regexp.Regexp
	// Post transforms the matched line, typically stripping a reply prefix.
	Post func(string) string
	// Timeout overrides the session's response timeout when > 0.
	Timeout time.Duration
}

// NewCommand returns a fire-and-forget command.
func NewCommand(text string) Command {
	return Command{Text: text}
}

// Expect returns a copy of c that waits for a line matching match and
// passes it through post (which may be nil).
func (c Command) Expect(match *regexp.Regexp, post func(string) string) Command {
	c.Match = match
	c.Post = post
	return c
}

// WithTimeout returns a copy of c with a per-command response timeout.
func (c Command) WithTimeout(d time.Duration) Command {
	c.Timeout = d
	return c
}

// Validate reports whether c can be written as a single protocol line.
func (c Command) Validate() error {
	if strings.TrimSpace(c.Text) == "" {
		return newCommandError(c.Text, ErrInvalidArgument, errors.New("empty command"))
	}
	if strings.ContainsAny(c.Text, "\r\n") {
		return newCommandError(c.Text, ErrInvalidArgument, errors.New("command contains a line break"))
	}
	return nil
}

// Options configures a Session.
type Options struct {
	// ResponseTimeout bounds the wait for a matching reply. Zero means
	// DefaultResponseTimeout; negative disables the deadline.
	ResponseTimeout time.Duration
	// Logger receives debug output about each exchange. Nil discards.
	Logger *slog.Logger
}

// Session is the live connection to one running player. It is safe for
// concurrent use; exchanges are serialized so exactly one command is in
// flight at a time.
//
// Lines that do not match the pending command's matcher are discarded. Any
// unsolicited output the player prints between a request and its reply is
// therefore lost.
type Session struct {
	mu      sync.Mutex
	stream  Stream
	closed  atomic.Bool
	timeout time.Duration
	logger  *slog.Logger
}

// NewSession wraps an open stream. The session owns the stream from here on.
func NewSession(stream Stream, opts Options) *Session {
	timeout := opts.ResponseTimeout
	if timeout == 0 {
		timeout = DefaultResponseTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		stream:  stream,
		timeout: timeout,
		logger:  logger,
	}
}

// Execute writes text and, if match is non-nil, returns the first reply line
// that matches, transformed by post.
func (s *Session) Execute(text string, match *regexp.Regexp, post func(string) string) (string, error) {
	return s.Send(NewCommand(text).Expect(match, post))
}

// Send performs one exchange. Without a matcher it returns as soon as the
// line is written. With one it reads lines until a match, the response
// timeout, or end of stream. Nothing is retried.
func (s *Session) Send(cmd Command) (string, error) {
	if err := cmd.Validate(); err != nil {
		return "", err
	}
	if s.closed.Load() {
		return "", newCommandError(cmd.Text, ErrSessionClosed, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Close may have won the race for the lock.
	if s.closed.Load() {
		return "", newCommandError(cmd.Text, ErrSessionClosed, nil)
	}

	if err := s.stream.WriteLine(cmd.Text); err != nil {
		if s.closed.Load() {
			return "", newCommandError(cmd.Text, ErrSessionClosed, err)
		}
		s.logger.Debug("slave write failed", "cmd", cmd.Text, "err", err)
		return "", newCommandError(cmd.Text, ErrWrite, err)
	}
	s.logger.Debug("slave sent", "cmd", cmd.Text)

	if cmd.Match == nil {
		return "", nil
	}
	return s.await(cmd)
}

func (s *Session) await(cmd Command) (string, error) {
	timeout := s.timeout
	if cmd.Timeout > 0 {
		timeout = cmd.Timeout
	}
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		var wait time.Duration
		if !deadline.IsZero() {
			wait = time.Until(deadline)
			if wait <= 0 {
				return "", s.timedOut(cmd, timeout)
			}
		}

		line, err := s.stream.ReadLine(wait)
		switch {
		case err == nil:
		case errors.Is(err, os.ErrDeadlineExceeded):
			return "", s.timedOut(cmd, timeout)
		case errors.Is(err, os.ErrClosed) && s.closed.Load():
			return "", newCommandError(cmd.Text, ErrSessionClosed, nil)
		default:
			if !errors.Is(err, io.EOF) {
				s.logger.Debug("slave read failed", "cmd", cmd.Text, "err", err)
			}
			s.terminate()
			return "", newCommandError(cmd.Text, ErrProcessTerminated, err)
		}

		if !cmd.Match.MatchString(line) {
			s.logger.Debug("slave discarded line", "cmd", cmd.Text, "line", line)
			continue
		}
		if cmd.Post != nil {
			line = cmd.Post(line)
		}
		return line, nil
	}
}

func (s *Session) timedOut(cmd Command, timeout time.Duration) error {
	s.logger.Warn("slave response timed out", "cmd", cmd.Text, "timeout", timeout)
	return newCommandError(cmd.Text, ErrResponseTimeout, nil)
}

// terminate moves the session to Closed after the player's output ended.
func (s *Session) terminate() {
	if s.closed.CompareAndSwap(false, true) {
		s.logger.Info("slave player output ended")
		s.stream.Close()
	}
}

// IsOpen reports whether the session still accepts commands.
func (s *Session) IsOpen() bool {
	return !s.closed.Load()
}

// Close closes the stream, which tells the player its input has ended.
// It does not wait for an in-flight exchange; that exchange fails with
// ErrSessionClosed. Close is idempotent.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.logger.Debug("slave session closed")
	return s.stream.Close()
}
