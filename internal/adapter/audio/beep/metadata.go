package beep

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dhowden/tag"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/ports"
)

// MetadataReader reads tags with dhowden/tag and measures duration by
// decoding the stream header.
type MetadataReader struct{}

// NewMetadataReader creates a metadata reader.
func NewMetadataReader() *MetadataReader {
	return &MetadataReader{}
}

// SupportedExtensions implements ports.MetadataReader.
func (r *MetadataReader) SupportedExtensions() []string {
	return slices.Clone(supportedExtensions)
}

// ReadMetadata implements ports.MetadataReader. Missing tags fall back to an
// "Artist - Title" file name, then to the bare file name.
func (r *MetadataReader) ReadMetadata(path string) (domain.Track, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(supportedExtensions, ext) {
		return domain.Track{}, domain.ErrUnsupportedFormat
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.Track{}, domain.NewAudioEngineError("metadata", path, "failed to open file", err)
	}
	defer f.Close()

	track := fromFileName(path)
	if m, err := tag.ReadFrom(f); err == nil {
		if title := strings.TrimSpace(m.Title()); title != "" {
			track.Title = title
		}
		if artist := strings.TrimSpace(m.Artist()); artist != "" {
			track.Artist = artist
		}
		track.Genre = strings.TrimSpace(m.Genre())
	}

	if _, err := f.Seek(0, 0); err != nil {
		return domain.Track{}, domain.NewAudioEngineError("metadata", path, "failed to rewind", err)
	}
	streamer, format, err := decode(f, ext)
	if err != nil {
		return domain.Track{}, domain.NewAudioEngineError("metadata", path, "failed to decode", err)
	}
	track.Duration = format.SampleRate.D(streamer.Len())
	_ = streamer.Close()

	return track, nil
}

func fromFileName(path string) domain.Track {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	track := domain.Track{Title: name, AudioURL: path}
	if artist, title, ok := strings.Cut(name, " - "); ok {
		track.Artist = strings.TrimSpace(artist)
		track.Title = strings.TrimSpace(title)
	}
	return track
}

var _ ports.MetadataReader = (*MetadataReader)(nil)
