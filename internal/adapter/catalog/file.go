package catalog

import (
	"context"
	"io"
	"os"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/ports"
)

// FileSource reads the catalog from a local file.
type FileSource struct {
	path string
}

// NewFileSource creates a file source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Open implements ports.CatalogSource. The context is unused.
func (s *FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, domain.NewRepositoryError("open", "catalog", "cannot open catalog file", err)
	}
	return f, nil
}

// Location implements ports.CatalogSource.
func (s *FileSource) Location() string {
	return s.path
}

var _ ports.CatalogSource = (*FileSource)(nil)
