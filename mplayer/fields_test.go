package mplayer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	slave "github.com/luhtfiimanal/go-mplayer-slave"
)

func TestFieldTable(t *testing.T) {
	tests := []struct {
		field   Field
		command string
		reply   string
	}{
		{TimePos, "get_time_pos", "ANS_TIME_POSITION"},
		{TimeLength, "get_time_length", "ANS_LENGTH"},
		{FileName, "get_file_name", "ANS_FILENAME"},
		{VideoResolution, "get_video_resolution", "ANS_VIDEO_RESOLUTION"},
		{MetaGenre, "get_meta_genre", "ANS_META_GENRE"},
	}
	for _, tt := range tests {
		t.Run(tt.field.String(), func(t *testing.T) {
			cmd, err := tt.field.command()
			require.NoError(t, err)
			require.Equal(t, tt.command, cmd.Text)
			require.True(t, cmd.Match.MatchString(tt.reply+"=x"))
			require.Equal(t, "x", cmd.Post(tt.reply+"='x'"))
		})
	}
}

func TestFieldMatcherIsAnchored(t *testing.T) {
	cmd, err := TimeLength.command()
	require.NoError(t, err)
	// ANS_LENGTH must not pick up a different answer that merely contains it.
	require.False(t, cmd.Match.MatchString("ANS_LENGTHY=1"))
	require.False(t, cmd.Match.MatchString("echo ANS_LENGTH=1"))
}

func TestEveryFieldFollowsTheReplyConvention(t *testing.T) {
	all := Fields()
	require.Len(t, all, 16)
	for i, f := range all {
		require.Equal(t, Field(i), f)
		spec := fields[f]
		require.True(t, strings.HasPrefix(spec.reply, "ANS_"), f.String())
		if f > FileName {
			require.Equal(t, "ANS_"+strings.ToUpper(spec.name), spec.reply)
		}
	}
}

func TestParseField(t *testing.T) {
	tests := []struct {
		name string
		want Field
	}{
		{"time_pos", TimePos},
		{"time_position", TimePos},
		{"FILENAME", FileName},
		{"file_name", FileName},
		{" artist ", MetaArtist},
		{"meta_track", MetaTrack},
		{"genre", MetaGenre},
	}
	for _, tt := range tests {
		got, err := ParseField(tt.name)
		require.NoError(t, err, tt.name)
		require.Equal(t, tt.want, got, tt.name)
	}

	_, err := ParseField("bitrate")
	require.ErrorIs(t, err, slave.ErrInvalidArgument)
}

func TestFieldString(t *testing.T) {
	require.Equal(t, "meta_album", MetaAlbum.String())
	require.Equal(t, "Field(99)", Field(99).String())
}
