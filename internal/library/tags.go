package library

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
)

// fileTags is the metadata the scanner needs from one audio file.
type fileTags struct {
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Duration    float64 // seconds; 0 when unknown
	Artwork     []byte
	ArtworkMIME string
}

func readTags(path string) (*fileTags, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		return readFLACTags(path)
	case ".mp3":
		return readMP3Tags(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}
}

func readFLACTags(path string) (*fileTags, error) {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse flac: %w", err)
	}

	t := &fileTags{}
	for _, meta := range f.Meta {
		switch meta.Type {
		case goflac.VorbisComment:
			cmt, err := flacvorbis.ParseFromMetaDataBlock(*meta)
			if err != nil {
				continue
			}
			t.Title = firstComment(cmt, flacvorbis.FIELD_TITLE)
			t.Artist = firstComment(cmt, flacvorbis.FIELD_ARTIST)
			t.Album = firstComment(cmt, flacvorbis.FIELD_ALBUM)
			t.AlbumArtist = firstComment(cmt, "ALBUMARTIST")

		case goflac.Picture:
			if t.Artwork != nil {
				continue
			}
			if pic, err := flacpicture.ParseFromMetaDataBlock(*meta); err == nil {
				t.Artwork = pic.ImageData
				t.ArtworkMIME = pic.MIME
			}

		case goflac.StreamInfo:
			t.Duration = flacDuration(meta.Data)
		}
	}

	if t.Title == "" {
		t.Title = filepath.Base(path)
	}
	if t.AlbumArtist == "" {
		t.AlbumArtist = t.Artist
	}
	return t, nil
}

func firstComment(cmt *flacvorbis.MetaDataBlockVorbisComment, field string) string {
	values, err := cmt.Get(field)
	if err != nil || len(values) == 0 {
		return ""
	}
	return values[0]
}

// flacDuration decodes total samples and sample rate from a raw StreamInfo
// block. Sample rate lives in bits 0-19 of bytes 10-12; total samples in the
// low nibble of byte 13 plus bytes 14-17.
func flacDuration(data []byte) float64 {
	if len(data) < 18 {
		return 0
	}
	sampleRate := int(data[10])<<12 | int(data[11])<<4 | int(data[12])>>4
	totalSamples := int64(data[13]&0x0F)<<32 | int64(data[14])<<24 | int64(data[15])<<16 | int64(data[16])<<8 | int64(data[17])
	if sampleRate <= 0 {
		return 0
	}
	return float64(totalSamples) / float64(sampleRate)
}

func readMP3Tags(path string) (*fileTags, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("failed to parse mp3: %w", err)
	}
	defer tag.Close() //nolint:errcheck // read-only

	t := &fileTags{
		Title:       tag.Title(),
		Artist:      tag.Artist(),
		Album:       tag.Album(),
		AlbumArtist: tag.GetTextFrame("TPE2").Text,
	}

	// TLEN carries the length in milliseconds when the tagger wrote it.
	if tlen := tag.GetTextFrame("TLEN").Text; tlen != "" {
		if ms, err := strconv.ParseInt(tlen, 10, 64); err == nil && ms > 0 {
			t.Duration = float64(ms) / 1000
		}
	}

	for _, frame := range tag.GetFrames(tag.CommonID("Attached picture")) {
		if pic, ok := frame.(id3v2.PictureFrame); ok {
			t.Artwork = pic.Picture
			t.ArtworkMIME = pic.MimeType
			break
		}
	}

	if t.Title == "" {
		t.Title = filepath.Base(path)
	}
	if t.AlbumArtist == "" {
		t.AlbumArtist = t.Artist
	}
	return t, nil
}
