package service

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/ports"
)

// LibraryService builds catalog rows from a folder of tagged audio files.
type LibraryService struct {
	logger *slog.Logger
	reader ports.MetadataReader
	bus    ports.EventBus

	scanning   bool
	cancelScan context.CancelFunc

	mu sync.Mutex
}

// NewLibraryService creates a new library service.
func NewLibraryService(logger *slog.Logger, reader ports.MetadataReader, bus ports.EventBus) *LibraryService {
	return &LibraryService{
		logger: logger.With(slog.String("service", "library")),
		reader: reader,
		bus:    bus,
	}
}

// Scan walks dir recursively and returns one track per readable audio file,
// ordered by path, with ids assigned 1..n. Files whose metadata cannot be
// read are skipped. Only one scan runs at a time.
func (s *LibraryService) Scan(ctx context.Context, dir string) ([]domain.Track, error) {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return nil, domain.ErrScanInProgress
	}
	ctx, cancel := context.WithCancel(ctx)
	s.scanning = true
	s.cancelScan = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.scanning = false
		s.cancelScan = nil
		s.mu.Unlock()
	}()

	log := s.logger.With(slog.String("dir", dir))
	log.Info("scan started")
	s.bus.Publish(domain.NewScanStartedEvent(dir))

	files, err := s.collect(ctx, dir)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.Info("scan cancelled")
			s.bus.Publish(domain.NewScanCancelledEvent(err.Error()))
			return nil, domain.ErrScanCancelled
		}
		log.Error("scan failed", slog.Any("error", err))
		return nil, domain.NewServiceError("LibraryService", "Scan", "walk failed", err)
	}

	tracks := make([]domain.Track, 0, len(files))
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			log.Info("scan cancelled", slog.Int("scanned", i))
			s.bus.Publish(domain.NewScanCancelledEvent(err.Error()))
			return tracks, domain.ErrScanCancelled
		}

		track, err := s.reader.ReadMetadata(path)
		if err != nil {
			log.Debug("skipping unreadable file", slog.String("file", path), slog.Any("error", err))
		} else {
			if strings.TrimSpace(track.Title) == "" {
				track.Title = titleFromPath(path)
			}
			if track.AudioURL == "" {
				track.AudioURL = path
			}
			track.ID = len(tracks) + 1
			tracks = append(tracks, track)
		}

		s.bus.Publish(domain.NewScanProgressEvent(domain.ScanProgress{
			CurrentFile:  path,
			FilesScanned: i + 1,
			TracksFound:  len(tracks),
		}))
	}

	log.Info("scan completed", slog.Int("files", len(files)), slog.Int("tracks", len(tracks)))
	s.bus.Publish(domain.NewScanCompletedEvent(tracks))
	return tracks, nil
}

// CancelScan stops a running scan. It is a no-op when none is running.
func (s *LibraryService) CancelScan() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelScan != nil {
		s.cancelScan()
	}
}

// IsScanning reports whether a scan is running.
func (s *LibraryService) IsScanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// IsFormatSupported reports whether path has an extension the reader handles.
func (s *LibraryService) IsFormatSupported(path string) bool {
	return slices.Contains(s.reader.SupportedExtensions(), strings.ToLower(filepath.Ext(path)))
}

func (s *LibraryService) collect(ctx context.Context, dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == dir {
				return err
			}
			// Unreadable entries below the root are skipped.
			return nil
		}
		if !d.IsDir() && s.IsFormatSupported(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
