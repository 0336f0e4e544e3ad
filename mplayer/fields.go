package mplayer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	slave "github.com/luhtfiimanal/go-mplayer-slave"
)

// Field identifies a property readable with Get.
type Field int

const (
	TimePos Field = iota
	TimeLength
	FileName
	VideoCodec
	VideoBitrate
	VideoResolution
	AudioCodec
	AudioBitrate
	AudioSamples
	MetaTitle
	MetaArtist
	MetaAlbum
	MetaYear
	MetaComment
	MetaTrack
	MetaGenre
)

// fieldSpec ties a field to its get_ command and ANS_ reply prefix.
type fieldSpec struct {
	name  string
	reply string
	match *regexp.Regexp
}

func newFieldSpec(name, reply string) fieldSpec {
	return fieldSpec{
		name:  name,
		reply: reply,
		match: regexp.MustCompile("^" + regexp.QuoteMeta(reply) + "="),
	}
}

// Most replies are ANS_ plus the upper-cased field name; the first three are not.
var fields = map[Field]fieldSpec{
	TimePos:         newFieldSpec("time_pos", "ANS_TIME_POSITION"),
	TimeLength:      newFieldSpec("time_length", "ANS_LENGTH"),
	FileName:        newFieldSpec("file_name", "ANS_FILENAME"),
	VideoCodec:      newFieldSpec("video_codec", "ANS_VIDEO_CODEC"),
	VideoBitrate:    newFieldSpec("video_bitrate", "ANS_VIDEO_BITRATE"),
	VideoResolution: newFieldSpec("video_resolution", "ANS_VIDEO_RESOLUTION"),
	AudioCodec:      newFieldSpec("audio_codec", "ANS_AUDIO_CODEC"),
	AudioBitrate:    newFieldSpec("audio_bitrate", "ANS_AUDIO_BITRATE"),
	AudioSamples:    newFieldSpec("audio_samples", "ANS_AUDIO_SAMPLES"),
	MetaTitle:       newFieldSpec("meta_title", "ANS_META_TITLE"),
	MetaArtist:      newFieldSpec("meta_artist", "ANS_META_ARTIST"),
	MetaAlbum:       newFieldSpec("meta_album", "ANS_META_ALBUM"),
	MetaYear:        newFieldSpec("meta_year", "ANS_META_YEAR"),
	MetaComment:     newFieldSpec("meta_comment", "ANS_META_COMMENT"),
	MetaTrack:       newFieldSpec("meta_track", "ANS_META_TRACK"),
	MetaGenre:       newFieldSpec("meta_genre", "ANS_META_GENRE"),
}

var aliases = map[string]Field{
	"time_position": TimePos,
	"filename":      FileName,
	"title":         MetaTitle,
	"album":         MetaAlbum,
	"year":          MetaYear,
	"artist":        MetaArtist,
	"comment":       MetaComment,
	"genre":         MetaGenre,
}

func (f Field) String() string {
	if spec, ok := fields[f]; ok {
		return spec.name
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// command builds the get_ request for f, stripping the reply prefix and
// the single quotes MPlayer puts around string values.
func (f Field) command() (slave.Command, error) {
	spec, ok := fields[f]
	if !ok {
		return slave.Command{}, fmt.Errorf("%w: unknown field %d", slave.ErrInvalidArgument, int(f))
	}
	prefix := spec.reply + "="
	return slave.NewCommand("get_"+spec.name).Expect(spec.match, func(s string) string {
		return strings.ReplaceAll(strings.TrimPrefix(s, prefix), "'", "")
	}), nil
}

// ParseField accepts a canonical field name ("time_pos", "meta_artist") or
// one of the short aliases ("artist", "filename").
func ParseField(name string) (Field, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if f, ok := aliases[name]; ok {
		return f, nil
	}
	for f, spec := range fields {
		if spec.name == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown field %q", slave.ErrInvalidArgument, name)
}

// Fields returns every field in declaration order.
func Fields() []Field {
	out := make([]Field, 0, len(fields))
	for f := range fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
