// Package mplayer formats MPlayer slave-mode commands and parses their
// single-line replies on top of a slave.Session.
//
// Arguments are validated before anything is sent; violations wrap
// slave.ErrInvalidArgument. File paths are quoted with Quote.
package mplayer

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	slave "github.com/luhtfiimanal/go-mplayer-slave"
)

// Session is the part of *slave.Session the player needs.
type Session interface {
	Send(cmd slave.Command) (string, error)
	Close() error
}

// MaxSpeed is the highest playback speed the speed commands accept.
const MaxSpeed = 5

// VolumeAction selects how Volume changes the volume.
type VolumeAction int

const (
	VolumeUp VolumeAction = iota
	VolumeDown
	VolumeSet
)

// SeekType selects how Seek interprets its value.
type SeekType int

const (
	SeekRelative SeekType = iota // +/- seconds
	SeekPercent                  // percent of the file
	SeekAbsolute                 // seconds from the start
)

// SpeedType selects how Speed applies its value.
type SpeedType int

const (
	SpeedSet SpeedType = iota
	SpeedIncrement
	SpeedMultiply
)

// LoopAction selects how Loop changes looping.
type LoopAction int

const (
	LoopForever LoopAction = iota
	LoopNone
	LoopTimes
)

var (
	volumeReply   = regexp.MustCompile(`^Volume: `)
	positionReply = regexp.MustCompile(`^Position: `)
	speedReply    = regexp.MustCompile(`^Speed: `)
	muteReply     = regexp.MustCompile(`^Mute: `)
)

// trim strips a reply prefix and suffix and any surrounding spaces.
func trim(prefix, suffix string) func(string) string {
	return func(s string) string {
		s = strings.TrimPrefix(s, prefix)
		s = strings.TrimSuffix(s, suffix)
		return strings.TrimSpace(s)
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", slave.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Player drives one MPlayer instance.
type Player struct {
	s Session
}

// New returns a Player sending commands through s.
func New(s Session) *Player {
	return &Player{s: s}
}

func (p *Player) run(text string) error {
	_, err := p.s.Send(slave.NewCommand(text))
	return err
}

func (p *Player) query(text string, match *regexp.Regexp, post func(string) string) (string, error) {
	return p.s.Send(slave.NewCommand(text).Expect(match, post))
}

// Volume steps the volume up or down, or sets it to value (0-100), and
// returns the volume the player reports.
func (p *Player) Volume(action VolumeAction, value int) (string, error) {
	var cmd string
	switch action {
	case VolumeUp:
		cmd = "volume 1"
	case VolumeDown:
		cmd = "volume 0"
	case VolumeSet:
		if value < 0 || value > 100 {
			return "", invalid("volume %d outside 0-100", value)
		}
		cmd = fmt.Sprintf("volume %d 1", value)
	default:
		return "", invalid("volume action %d", int(action))
	}
	return p.query(cmd, volumeReply, trim("Volume: ", " %"))
}

// Seek moves the playback position and returns the position the player
// reports.
func (p *Player) Seek(value float64, typ SeekType) (string, error) {
	var mode int
	switch typ {
	case SeekRelative:
		mode = 0
	case SeekPercent:
		if value < 0 || value > 100 {
			return "", invalid("seek %s%% outside 0-100", num(value))
		}
		mode = 1
	case SeekAbsolute:
		if value < 0 {
			return "", invalid("seek to negative position %s", num(value))
		}
		mode = 2
	default:
		return "", invalid("seek type %d", int(typ))
	}
	return p.query(fmt.Sprintf("seek %s %d", num(value), mode), positionReply, trim("Position: ", " %"))
}

// Speed sets, increments or multiplies the playback speed and returns the
// speed the player reports. value may not exceed MaxSpeed.
func (p *Player) Speed(value float64, typ SpeedType) (string, error) {
	var name string
	switch typ {
	case SpeedSet:
		name = "speed_set"
	case SpeedIncrement:
		name = "speed_incr"
	case SpeedMultiply:
		name = "speed_mult"
	default:
		return "", invalid("speed type %d", int(typ))
	}
	if value > MaxSpeed {
		return "", invalid("speed %s above %d", num(value), MaxSpeed)
	}
	return p.query(fmt.Sprintf("%s %s", name, num(value)), speedReply, trim("Speed: x", ""))
}

// SpeedIncr adds value to the current speed.
func (p *Player) SpeedIncr(value float64) (string, error) { return p.Speed(value, SpeedIncrement) }

// SpeedMult multiplies the current speed by value.
func (p *Player) SpeedMult(value float64) (string, error) { return p.Speed(value, SpeedMultiply) }

// SpeedSet sets the speed to value.
func (p *Player) SpeedSet(value float64) (string, error) { return p.Speed(value, SpeedSet) }

// Loop sets how many times playback loops. times is only used with LoopTimes.
func (p *Player) Loop(action LoopAction, times int) error {
	switch action {
	case LoopForever:
		return p.run("loop 0")
	case LoopNone:
		return p.run("loop -1")
	case LoopTimes:
		if times < 1 {
			return invalid("loop count %d", times)
		}
		return p.run(fmt.Sprintf("loop %d", times))
	default:
		return invalid("loop action %d", int(action))
	}
}

// PtStep moves n entries through the playtree; the sign of n gives the
// direction. Without force nothing happens at the end of the list.
func (p *Player) PtStep(n int, force bool) error {
	return p.run(fmt.Sprintf("pt_step %d %d", n, flag(force)))
}

// Next moves n entries forward in the playlist.
func (p *Player) Next(n int, force bool) error {
	return p.PtStep(abs(n), force)
}

// Back moves n entries backward in the playlist.
func (p *Player) Back(n int, force bool) error {
	return p.PtStep(-abs(n), force)
}

// PtUpStep is PtStep on the parent list, for breaking out of an inner loop.
func (p *Player) PtUpStep(n int, force bool) error {
	return p.run(fmt.Sprintf("pt_up_step %d %d", n, flag(force)))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// UseMaster switches volume control between master and PCM.
func (p *Player) UseMaster() error { return p.run("use_master") }

// Mute toggles muting and returns the state the player reports.
func (p *Player) Mute() (string, error) {
	return p.query("mute", muteReply, trim("Mute: ", ""))
}

// SetMute turns muting on or off and returns the state the player reports.
func (p *Player) SetMute(on bool) (string, error) {
	return p.query(fmt.Sprintf("mute %d", flag(on)), muteReply, trim("Mute: ", ""))
}

// Get reads one property of the current file.
func (p *Player) Get(f Field) (string, error) {
	cmd, err := f.command()
	if err != nil {
		return "", err
	}
	return p.s.Send(cmd)
}

// LoadFile loads path, replacing the playlist unless appendToList is set.
func (p *Player) LoadFile(path string, appendToList bool) error {
	return p.load("loadfile", path, appendToList)
}

// LoadList loads the playlist at path, replacing the current one unless
// appendToList is set.
func (p *Player) LoadList(path string, appendToList bool) error {
	return p.load("loadlist", path, appendToList)
}

func (p *Player) load(name, path string, appendToList bool) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s %q: %v", slave.ErrInvalidArgument, name, path, err)
	}
	return p.run(fmt.Sprintf("%s %s %d", name, Quote(path), flag(appendToList)))
}

// AltSrcStep selects the next/previous alternative source (ASX playlists).
func (p *Player) AltSrcStep(n int) error {
	return p.run(fmt.Sprintf("alt_src_step %d", n))
}

// Balance sets the audio balance between -1 (left) and 1 (right).
func (p *Player) Balance(value float64) error {
	if value < -1 || value > 1 {
		return invalid("balance %s outside -1..1", num(value))
	}
	return p.run("balance " + num(value))
}

// FrameStep plays one frame, then pauses again.
func (p *Player) FrameStep() error { return p.run("frame_step") }

// EdlMark writes the current position into the EDL file.
func (p *Player) EdlMark() error { return p.run("edl_mark") }

// Pause toggles pause.
func (p *Player) Pause() error { return p.run("pause") }

// Quit tells the player to exit and closes the session.
func (p *Player) Quit() error {
	err := p.run("quit")
	if cerr := p.s.Close(); err == nil {
		err = cerr
	}
	return err
}
