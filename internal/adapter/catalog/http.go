package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"resty.dev/v3"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/ports"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPSource downloads the catalog from a URL. The body is streamed to the
// parser rather than buffered.
type HTTPSource struct {
	logger *slog.Logger
	http   *resty.Client
	url    string
}

// NewHTTPSource creates an HTTP source.
func NewHTTPSource(logger *slog.Logger, url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPSource{
		logger: logger.With(slog.String("component", "catalog-http")),
		url:    url,
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "text/csv, text/plain, */*").
			SetHeader("User-Agent", "MusicApp/1.0").
			SetHeader("ngrok-skip-browser-warning", "true"),
	}
}

// Open implements ports.CatalogSource.
func (s *HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	res, err := s.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetDoNotParseResponse(true).
		Get(s.url)
	if err != nil {
		return nil, domain.NewNetworkError("catalog", s.url, err)
	}
	if !res.IsSuccess() {
		_ = res.Body.Close()
		return nil, domain.NewNetworkError("catalog", s.url, fmt.Errorf("unexpected status %d", res.StatusCode()))
	}
	s.logger.Debug("catalog response", slog.Int("status", res.StatusCode()))
	return res.Body, nil
}

// Location implements ports.CatalogSource.
func (s *HTTPSource) Location() string {
	return s.url
}

// Close releases idle connections.
func (s *HTTPSource) Close() error {
	return s.http.Close()
}

var _ ports.CatalogSource = (*HTTPSource)(nil)
