// Package catalog provides the places a catalog CSV can be read from: a local
// file, an http(s) URL or an S3 object.
package catalog

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/ports"
)

// S3Config holds S3 connection settings. Empty credentials fall back to the
// SDK's default chain.
type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Options configures NewSource.
type Options struct {
	HTTPTimeout time.Duration
	S3          S3Config
}

// NewSource picks a source implementation from the shape of location.
func NewSource(logger *slog.Logger, location string, opts Options) (ports.CatalogSource, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("%w: empty location", domain.ErrUnsupportedSource)
	}

	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain paths, including Windows drive letters.
		return NewFileSource(location), nil
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return NewFileSource(u.Path), nil
	case "http", "https":
		return NewHTTPSource(logger, location, opts.HTTPTimeout), nil
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, fmt.Errorf("%w: %s needs a bucket and a key", domain.ErrUnsupportedSource, location)
		}
		return NewS3Source(logger, u.Host, key, opts.S3)
	default:
		return nil, fmt.Errorf("%w: scheme %q", domain.ErrUnsupportedSource, u.Scheme)
	}
}
