package slave

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultDelimiter terminates every line of the slave protocol.
const DefaultDelimiter = "\n"

// Stream is the duplex line transport a Session drives.
//
// ReadLine returns a line without its delimiter, io.EOF at end of stream,
// os.ErrDeadlineExceeded when timeout (if > 0) elapses first, and
// os.ErrClosed once Close has been called.
type Stream interface {
	WriteLine(line string) error
	ReadLine(timeout time.Duration) (string, error)
	Close() error
}

// FileStream provides low-latency, killable, line-oriented access to a
// player's stdin/stdout pipe pair. WriteLine and ReadLine may run on
// different goroutines, but ReadLine must not be called concurrently with
// itself. Close unblocks a pending ReadLine.
type FileStream struct {
	in        *os.File // player's stdin, we write
	out       *os.File // player's stdout, we read
	fd        int
	delimiter string
	buf       []byte
	pending   []byte
	eof       bool
	done      chan struct{}
	closeOnce sync.Once
	pipeR     int // self-pipe read fd
	pipeW     int // self-pipe write fd
}

// NewFileStream takes ownership of in and out. An empty delimiter means
// DefaultDelimiter.
func NewFileStream(in, out *os.File, delimiter string) (*FileStream, error) {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}

	// Create self-pipe for killability
	pipeFds := make([]int, 2)
	if err := unix.Pipe(pipeFds); err != nil {
		return nil, fmt.Errorf("pipe: %w", err)
	}

	return &FileStream{
		in:        in,
		out:       out,
		fd:        int(out.Fd()),
		delimiter: delimiter,
		buf:       make([]byte, 4096),
		done:      make(chan struct{}),
		pipeR:     pipeFds[0],
		pipeW:     pipeFds[1],
	}, nil
}

// WriteLine writes line followed by the delimiter in a single write.
func (s *FileStream) WriteLine(line string) error {
	select {
	case <-s.done:
		return os.ErrClosed
	default:
	}
	_, err := s.in.WriteString(line + s.delimiter)
	return err
}

// ReadLine blocks until a full line is buffered, the timeout elapses, the
// stream ends, or Close is called. Bytes read past the delimiter are kept
// for the next call. A timeout <= 0 waits indefinitely.
func (s *FileStream) ReadLine(timeout time.Duration) (string, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		if line, ok := s.nextLine(); ok {
			return line, nil
		}
		if s.eof {
			if len(s.pending) > 0 {
				line := lastSegment(string(s.pending))
				s.pending = s.pending[:0]
				return line, nil
			}
			return "", io.EOF
		}

		wait := -1
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return "", os.ErrDeadlineExceeded
			}
			// round up so sub-millisecond remainders still poll once
			wait = int((remaining + time.Millisecond - 1) / time.Millisecond)
		}

		// Use poll to wait for data or kill signal
		pfd := []unix.PollFd{
			{Fd: int32(s.fd), Events: unix.POLLIN},
			{Fd: int32(s.pipeR), Events: unix.POLLIN},
		}
		n, err := unix.Poll(pfd, wait)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return "", err
		}

		// Check killability
		select {
		case <-s.done:
			return "", os.ErrClosed
		default:
		}
		if pfd[1].Revents&unix.POLLIN != 0 || pfd[0].Revents&unix.POLLNVAL != 0 {
			return "", os.ErrClosed
		}
		if n == 0 {
			continue
		}

		if pfd[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			n, err := s.out.Read(s.buf)
			s.pending = append(s.pending, s.buf[:n]...)
			if errors.Is(err, io.EOF) {
				s.eof = true
			} else if err != nil {
				return "", err
			}
		}
	}
}

func (s *FileStream) nextLine() (string, bool) {
	idx := bytes.Index(s.pending, []byte(s.delimiter))
	if idx < 0 {
		return "", false
	}
	line := string(s.pending[:idx])
	s.pending = s.pending[idx+len(s.delimiter):]
	return lastSegment(line), true
}

// lastSegment keeps only the final carriage-return segment of a line, which
// is what a terminal would show for MPlayer's redrawn status output.
func lastSegment(line string) string {
	line = strings.TrimRight(line, "\r")
	if i := strings.LastIndexByte(line, '\r'); i >= 0 {
		return line[i+1:]
	}
	return line
}

// Close closes both pipe ends and unblocks any ReadLine call. Closing the
// player's stdin signals end of input to the player.
// Safe to call multiple times; subsequent calls are no-ops.
func (s *FileStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		// Wake up poll using self-pipe
		unix.Write(s.pipeW, []byte{1})
		err = errors.Join(s.in.Close(), s.out.Close())
		unix.Close(s.pipeR)
		unix.Close(s.pipeW)
	})
	return err
}
