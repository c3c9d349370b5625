package fyne

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"github.com/google/uuid"
	"resty.dev/v3"

	"github.com/formleszs/music-app/internal/domain"
)

// DefaultArtTimeout bounds a single album art download.
const DefaultArtTimeout = 15 * time.Second

// ArtLoader downloads album art and keeps it for the lifetime of the window.
type ArtLoader struct {
	logger *slog.Logger
	http   *resty.Client

	mu    sync.Mutex
	cache map[string]fyneapp.Resource
}

// NewArtLoader creates an album art loader.
func NewArtLoader(logger *slog.Logger, timeout time.Duration) *ArtLoader {
	if timeout <= 0 {
		timeout = DefaultArtTimeout
	}
	return &ArtLoader{
		logger: logger.With(slog.String("component", "art")),
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", "MusicApp/1.0").
			SetHeader("Accept", "image/*"),
		cache: make(map[string]fyneapp.Resource),
	}
}

// Load returns the image at url as a fyne resource.
func (l *ArtLoader) Load(ctx context.Context, url string) (fyneapp.Resource, error) {
	if url == "" {
		return nil, domain.ErrTrackNotFound
	}

	l.mu.Lock()
	if r, ok := l.cache[url]; ok {
		l.mu.Unlock()
		return r, nil
	}
	l.mu.Unlock()

	res, err := l.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		Get(url)
	if err != nil {
		return nil, domain.NewNetworkError("album art", url, err)
	}
	if !res.IsSuccess() {
		return nil, domain.NewNetworkError("album art", url,
			fmt.Errorf("unexpected HTTP status %d", res.StatusCode()))
	}

	r := fyneapp.NewStaticResource(path.Base(url), res.Bytes())
	l.mu.Lock()
	l.cache[url] = r
	l.mu.Unlock()

	l.logger.Debug("album art loaded",
		slog.String("url", url),
		slog.Int("bytes", len(res.Bytes())),
		slog.Duration("took", res.Duration()))
	return r, nil
}

// Close releases the HTTP client.
func (l *ArtLoader) Close() error {
	return l.http.Close()
}
