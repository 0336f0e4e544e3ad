package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	slave "github.com/luhtfiimanal/go-mplayer-slave"
	"github.com/luhtfiimanal/go-mplayer-slave/mplayer"
)

const prompt = "mplayer> "

const helpText = `Commands:
  pause | frame_step | edl_mark | use_master
  volume up|down|<0-100>
  seek <value> [relative|percent|absolute]
  speed <value> [set|incr|mult]
  loop forever|none|<times>
  next [n] [force] | back [n] [force]
  mute [on|off]
  balance <-1..1>
  get <field>            fields: %s
  load <path> [append]
  loadlist <path> [append]
  raw <command line>     sent verbatim, no reply awaited
  help
  quit`

var errUsage = errors.New("usage")

// repl maps typed commands onto Player calls.
type repl struct {
	player  *mplayer.Player
	session mplayer.Session
	out     io.Writer
}

func newREPL(session mplayer.Session, out io.Writer) *repl {
	return &repl{player: mplayer.New(session), session: session, out: out}
}

type lineReader interface {
	GetLine(prompt string) (string, error)
}

// run reads commands until quit or end of input. Errors from single
// commands are reported and the loop continues, unless the player is gone.
func (r *repl) run(in lineReader) error {
	for {
		line, err := in.GetLine(prompt)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		done, err := r.eval(line)
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
			if errors.Is(err, slave.ErrProcessTerminated) || errors.Is(err, slave.ErrSessionClosed) {
				return err
			}
		}
		if done {
			return nil
		}
	}
}

// eval executes one command line. done is true once the player was told to quit.
func (r *repl) eval(line string) (done bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	var reply string
	switch name {
	case "help", "?":
		fmt.Fprintf(r.out, helpText+"\n", fieldNames())
		return false, nil
	case "quit", "exit":
		return true, r.player.Quit()
	case "pause":
		err = r.player.Pause()
	case "frame_step":
		err = r.player.FrameStep()
	case "edl_mark":
		err = r.player.EdlMark()
	case "use_master":
		err = r.player.UseMaster()
	case "volume":
		reply, err = r.volume(args)
	case "seek":
		reply, err = r.seek(args)
	case "speed":
		reply, err = r.speed(args)
	case "loop":
		err = r.loop(args)
	case "next", "back":
		err = r.step(name, args)
	case "mute":
		reply, err = r.mute(args)
	case "balance":
		var v float64
		if v, err = floatArg(args, 0); err == nil {
			err = r.player.Balance(v)
		}
	case "get":
		reply, err = r.get(args)
	case "load", "loadlist":
		err = r.load(name, args)
	case "raw":
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
		_, err = r.session.Send(slave.NewCommand(text))
	default:
		return false, fmt.Errorf("unknown command %q (try help)", name)
	}
	if err != nil {
		return false, err
	}
	if reply != "" {
		fmt.Fprintln(r.out, reply)
	}
	return false, nil
}

func (r *repl) volume(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: volume up|down|<0-100>", errUsage)
	}
	switch args[0] {
	case "up":
		return r.player.Volume(mplayer.VolumeUp, 0)
	case "down":
		return r.player.Volume(mplayer.VolumeDown, 0)
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("%w: volume %q", slave.ErrInvalidArgument, args[0])
	}
	return r.player.Volume(mplayer.VolumeSet, v)
}

func (r *repl) seek(args []string) (string, error) {
	v, err := floatArg(args, 0)
	if err != nil {
		return "", err
	}
	typ := mplayer.SeekRelative
	if len(args) > 1 {
		switch args[1] {
		case "relative":
		case "percent":
			typ = mplayer.SeekPercent
		case "absolute":
			typ = mplayer.SeekAbsolute
		default:
			return "", fmt.Errorf("%w: seek type %q", slave.ErrInvalidArgument, args[1])
		}
	}
	return r.player.Seek(v, typ)
}

func (r *repl) speed(args []string) (string, error) {
	v, err := floatArg(args, 0)
	if err != nil {
		return "", err
	}
	typ := mplayer.SpeedSet
	if len(args) > 1 {
		switch args[1] {
		case "set":
		case "incr":
			typ = mplayer.SpeedIncrement
		case "mult":
			typ = mplayer.SpeedMultiply
		default:
			return "", fmt.Errorf("%w: speed type %q", slave.ErrInvalidArgument, args[1])
		}
	}
	return r.player.Speed(v, typ)
}

func (r *repl) loop(args []string) error {
	if len(args) == 0 || args[0] == "forever" {
		return r.player.Loop(mplayer.LoopForever, 0)
	}
	if args[0] == "none" {
		return r.player.Loop(mplayer.LoopNone, 0)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: loop %q", slave.ErrInvalidArgument, args[0])
	}
	return r.player.Loop(mplayer.LoopTimes, n)
}

func (r *repl) step(name string, args []string) error {
	n, force := 1, false
	for _, a := range args {
		if a == "force" {
			force = true
			continue
		}
		v, err := strconv.Atoi(a)
		if err != nil {
			return fmt.Errorf("%w: %s %q", slave.ErrInvalidArgument, name, a)
		}
		n = v
	}
	if name == "back" {
		return r.player.Back(n, force)
	}
	return r.player.Next(n, force)
}

func (r *repl) mute(args []string) (string, error) {
	if len(args) == 0 {
		return r.player.Mute()
	}
	switch args[0] {
	case "on":
		return r.player.SetMute(true)
	case "off":
		return r.player.SetMute(false)
	}
	return "", fmt.Errorf("%w: mute [on|off]", errUsage)
}

func (r *repl) get(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: get <field>", errUsage)
	}
	f, err := mplayer.ParseField(args[0])
	if err != nil {
		return "", err
	}
	return r.player.Get(f)
}

func (r *repl) load(name string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: %s <path> [append]", errUsage, name)
	}
	// Paths may contain spaces; a trailing "append" is the only option.
	appendToList := len(args) > 1 && args[len(args)-1] == "append"
	if appendToList {
		args = args[:len(args)-1]
	}
	path := strings.Join(args, " ")
	if name == "loadlist" {
		return r.player.LoadList(path, appendToList)
	}
	return r.player.LoadFile(path, appendToList)
}

func floatArg(args []string, i int) (float64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("%w: missing number", errUsage)
	}
	v, err := strconv.ParseFloat(args[i], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", slave.ErrInvalidArgument, args[i])
	}
	return v, nil
}

func fieldNames() string {
	var names []string
	for _, f := range mplayer.Fields() {
		names = append(names, f.String())
	}
	return strings.Join(names, " ")
}
