// Package slave provides a minimal synchronous client for line-oriented
// player control protocols such as MPlayer's slave mode.
//
// A controller writes one command per line to the player's stdin and, when a
// reply is expected, reads the player's stdout line by line until one line
// matches the reply pattern. There is no pipelining: a Session holds a lock
// across the whole write-then-read exchange.
//
// Features:
//   - One command in flight per Session, safe for concurrent callers
//   - Per-session and per-command response timeouts
//   - Poll-based pipe reads with a self-pipe so Close unblocks a pending read
//   - Distinct, errors.Is-inspectable failures (ErrWrite, ErrResponseTimeout,
//     ErrProcessTerminated, ErrSessionClosed, ErrInvalidArgument)
//
// Lines that do not match the pending command's pattern are discarded, so
// unsolicited output between a request and its reply is lost. Keep reply
// patterns specific.
//
// Example usage:
//
//	p, err := slave.Start(slave.Config{
//	    Args:            []string{"song.ogg"},
//	    ResponseTimeout: 2 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Quit(context.Background())
//
//	pos, err := p.Execute("get_time_pos", regexp.MustCompile(`^ANS_TIME_POSITION=`),
//	    func(s string) string { return strings.TrimPrefix(s, "ANS_TIME_POSITION=") })
//	if err != nil {
//	    log.Println("get_time_pos:", err)
//	}
//	fmt.Println("Position:", pos)
//
// The mplayer subpackage formats the common slave commands and parses their
// replies on top of a Session.
//
// This package does **not** support Windows.
package slave
