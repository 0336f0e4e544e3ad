package mplayer

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	slave "github.com/luhtfiimanal/go-mplayer-slave"
)

// fakeSession records command text and answers queries from a canned
// reply table, applying the command's own matcher and post-processing.
type fakeSession struct {
	sent    []string
	replies map[string]string
	closed  bool
}

func newFakeSession(replies map[string]string) *fakeSession {
	return &fakeSession{replies: replies}
}

func (f *fakeSession) Send(cmd slave.Command) (string, error) {
	if err := cmd.Validate(); err != nil {
		return "", err
	}
	f.sent = append(f.sent, cmd.Text)
	if cmd.Match == nil {
		return "", nil
	}
	reply, ok := f.replies[cmd.Text]
	if !ok || !cmd.Match.MatchString(reply) {
		return "", &slave.CommandError{Command: cmd.Text, Err: slave.ErrResponseTimeout}
	}
	if cmd.Post != nil {
		reply = cmd.Post(reply)
	}
	return reply, nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func TestPlayer_Volume(t *testing.T) {
	s := newFakeSession(map[string]string{
		"volume 1":    "Volume: 55 %",
		"volume 0":    "Volume: 45 %",
		"volume 50 1": "Volume: 50 %",
	})
	p := New(s)

	got, err := p.Volume(VolumeUp, 0)
	require.NoError(t, err)
	require.Equal(t, "55", got)

	got, err = p.Volume(VolumeDown, 0)
	require.NoError(t, err)
	require.Equal(t, "45", got)

	got, err = p.Volume(VolumeSet, 50)
	require.NoError(t, err)
	require.Equal(t, "50", got)

	_, err = p.Volume(VolumeSet, 101)
	require.ErrorIs(t, err, slave.ErrInvalidArgument)
	_, err = p.Volume(VolumeAction(42), 1)
	require.ErrorIs(t, err, slave.ErrInvalidArgument)

	require.Equal(t, []string{"volume 1", "volume 0", "volume 50 1"}, s.sent)
}

func TestPlayer_Seek(t *testing.T) {
	s := newFakeSession(map[string]string{
		"seek 10 0":  "Position: 12 %",
		"seek 50 1":  "Position: 50 %",
		"seek 2.5 2": "Position: 1 %",
	})
	p := New(s)

	got, err := p.Seek(10, SeekRelative)
	require.NoError(t, err)
	require.Equal(t, "12", got)

	got, err = p.Seek(50, SeekPercent)
	require.NoError(t, err)
	require.Equal(t, "50", got)

	got, err = p.Seek(2.5, SeekAbsolute)
	require.NoError(t, err)
	require.Equal(t, "1", got)

	_, err = p.Seek(150, SeekPercent)
	require.ErrorIs(t, err, slave.ErrInvalidArgument)
	_, err = p.Seek(-1, SeekAbsolute)
	require.ErrorIs(t, err, slave.ErrInvalidArgument)
	require.Len(t, s.sent, 3)
}

func TestPlayer_Speed(t *testing.T) {
	s := newFakeSession(map[string]string{
		"speed_set 1.5":  "Speed: x   1.50",
		"speed_incr 0.1": "Speed: x   1.60",
		"speed_mult 2":   "Speed: x   3.20",
	})
	p := New(s)

	got, err := p.SpeedSet(1.5)
	require.NoError(t, err)
	require.Equal(t, "1.50", got)

	got, err = p.SpeedIncr(0.1)
	require.NoError(t, err)
	require.Equal(t, "1.60", got)

	got, err = p.SpeedMult(2)
	require.NoError(t, err)
	require.Equal(t, "3.20", got)

	_, err = p.Speed(6, SpeedSet)
	require.ErrorIs(t, err, slave.ErrInvalidArgument)
	require.Len(t, s.sent, 3, "rejected speed must not be sent")
}

func TestPlayer_FireAndForget(t *testing.T) {
	s := newFakeSession(nil)
	p := New(s)

	require.NoError(t, p.Loop(LoopForever, 0))
	require.NoError(t, p.Loop(LoopNone, 0))
	require.NoError(t, p.Loop(LoopTimes, 3))
	require.NoError(t, p.PtStep(2, false))
	require.NoError(t, p.Next(-3, true))
	require.NoError(t, p.Back(3, false))
	require.NoError(t, p.PtUpStep(1, true))
	require.NoError(t, p.UseMaster())
	require.NoError(t, p.AltSrcStep(1))
	require.NoError(t, p.Balance(-0.5))
	require.NoError(t, p.FrameStep())
	require.NoError(t, p.EdlMark())
	require.NoError(t, p.Pause())

	require.Equal(t, []string{
		"loop 0",
		"loop -1",
		"loop 3",
		"pt_step 2 0",
		"pt_step 3 1",
		"pt_step -3 0",
		"pt_up_step 1 1",
		"use_master",
		"alt_src_step 1",
		"balance -0.5",
		"frame_step",
		"edl_mark",
		"pause",
	}, s.sent)

	require.ErrorIs(t, p.Loop(LoopTimes, 0), slave.ErrInvalidArgument)
	require.ErrorIs(t, p.Balance(1.5), slave.ErrInvalidArgument)
}

func TestPlayer_Mute(t *testing.T) {
	s := newFakeSession(map[string]string{
		"mute":   "Mute: enabled",
		"mute 0": "Mute: disabled",
	})
	p := New(s)

	got, err := p.Mute()
	require.NoError(t, err)
	require.Equal(t, "enabled", got)

	got, err = p.SetMute(false)
	require.NoError(t, err)
	require.Equal(t, "disabled", got)
}

func TestPlayer_Get(t *testing.T) {
	s := newFakeSession(map[string]string{
		"get_time_pos":    "ANS_TIME_POSITION=12.3",
		"get_time_length": "ANS_LENGTH=200.00",
		"get_file_name":   "ANS_FILENAME='song.ogg'",
		"get_meta_artist": "ANS_META_ARTIST='Daft Punk'",
	})
	p := New(s)

	for field, want := range map[Field]string{
		TimePos:    "12.3",
		TimeLength: "200.00",
		FileName:   "song.ogg",
		MetaArtist: "Daft Punk",
	} {
		got, err := p.Get(field)
		require.NoError(t, err, field.String())
		require.Equal(t, want, got, field.String())
	}

	_, err := p.Get(Field(99))
	require.ErrorIs(t, err, slave.ErrInvalidArgument)
}

func TestPlayer_LoadFile(t *testing.T) {
	dir := t.TempDir()
	song := filepath.Join(dir, "my song.ogg")
	require.NoError(t, os.WriteFile(song, nil, 0o644))
	list := filepath.Join(dir, "list.m3u")
	require.NoError(t, os.WriteFile(list, nil, 0o644))

	s := newFakeSession(nil)
	p := New(s)

	require.NoError(t, p.LoadFile(song, false))
	require.NoError(t, p.LoadList(list, true))
	require.Equal(t, []string{
		"loadfile '" + song + "' 0",
		"loadlist " + list + " 1",
	}, s.sent)

	err := p.LoadFile(filepath.Join(dir, "missing.ogg"), false)
	require.ErrorIs(t, err, slave.ErrInvalidArgument)
	require.Len(t, s.sent, 2)
}

func TestPlayer_LoadFileRejectsLineBreak(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad\nname.ogg")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	s := newFakeSession(nil)
	err := New(s).LoadFile(path, false)
	require.ErrorIs(t, err, slave.ErrInvalidArgument)
	require.Empty(t, s.sent)
}

func TestPlayer_Quit(t *testing.T) {
	s := newFakeSession(nil)
	require.NoError(t, New(s).Quit())
	require.Equal(t, []string{"quit"}, s.sent)
	require.True(t, s.closed)
}

func TestPlayer_ReplyMismatchSurfacesTimeout(t *testing.T) {
	s := newFakeSession(map[string]string{"volume 1": "ANS_PAUSED=yes"})
	_, err := New(s).Volume(VolumeUp, 0)
	require.ErrorIs(t, err, slave.ErrResponseTimeout)
}

// scriptedStream replays player output line by line, so the player can be
// exercised through a real slave.Session.
type scriptedStream struct {
	writes []string
	lines  []string
}

func (s *scriptedStream) WriteLine(line string) error {
	s.writes = append(s.writes, line)
	return nil
}

func (s *scriptedStream) ReadLine(time.Duration) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptedStream) Close() error { return nil }

func TestPlayer_OverSession(t *testing.T) {
	stream := &scriptedStream{lines: []string{
		"ANS_PAUSED=yes",
		"Volume: 50 %",
		"A:   3.2 V:   3.2",
		"ANS_TIME_POSITION=3.2",
	}}
	p := New(slave.NewSession(stream, slave.Options{}))

	vol, err := p.Volume(VolumeSet, 50)
	require.NoError(t, err)
	require.Equal(t, "50", vol)

	pos, err := p.Get(TimePos)
	require.NoError(t, err)
	require.Equal(t, "3.2", pos)

	// Output exhausted: the player has gone away.
	_, err = p.Get(TimeLength)
	require.True(t, errors.Is(err, slave.ErrProcessTerminated))

	require.Equal(t, []string{"volume 50 1", "get_time_pos", "get_time_length"}, stream.writes)
}
