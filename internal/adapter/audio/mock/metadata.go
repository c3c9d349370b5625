package mock

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/ports"
)

// MetadataReader derives metadata from file names of the form
// "Artist - Title.ext" without opening the file.
type MetadataReader struct {
	mu   sync.Mutex
	fail map[string]bool
	read []string
}

// NewMetadataReader creates a file-name based metadata reader.
func NewMetadataReader() *MetadataReader {
	return &MetadataReader{fail: make(map[string]bool)}
}

// SetFailFor makes ReadMetadata fail for the given base name.
func (r *MetadataReader) SetFailFor(name string, fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[name] = fail
}

// Read returns every path passed to ReadMetadata.
func (r *MetadataReader) Read() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.read...)
}

// ReadMetadata implements ports.MetadataReader.
func (r *MetadataReader) ReadMetadata(path string) (domain.Track, error) {
	base := filepath.Base(path)

	r.mu.Lock()
	r.read = append(r.read, path)
	fail := r.fail[base]
	r.mu.Unlock()

	if fail {
		return domain.Track{}, fmt.Errorf("mock: cannot read %s", base)
	}

	name := strings.TrimSuffix(base, filepath.Ext(base))
	track := domain.Track{AudioURL: path, Duration: DefaultDuration}
	if artist, title, ok := strings.Cut(name, " - "); ok {
		track.Artist = strings.TrimSpace(artist)
		track.Title = strings.TrimSpace(title)
	} else {
		track.Title = name
	}
	return track, nil
}

// SupportedExtensions implements ports.MetadataReader.
func (r *MetadataReader) SupportedExtensions() []string {
	return []string{".mp3", ".wav"}
}

var _ ports.MetadataReader = (*MetadataReader)(nil)
