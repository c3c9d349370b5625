package beep

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
	"resty.dev/v3"

	"github.com/formleszs/music-app/internal/domain"
)

const (
	extMP3 = ".mp3"
	extWAV = ".wav"

	downloadTimeout = 2 * time.Minute
	userAgent       = "MusicApp/1.0"
)

var supportedExtensions = []string{extMP3, extWAV}

func newStreamClient() *resty.Client {
	return resty.New().
		SetTimeout(downloadTimeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept-Encoding", "identity")
}

// bytesSource is a seekable in-memory body for the decoders.
type bytesSource struct {
	*bytes.Reader
}

func (bytesSource) Close() error { return nil }

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// extension returns the lower-cased file extension of a path or URL.
func extension(source string) string {
	if isRemote(source) {
		if u, err := url.Parse(source); err == nil {
			return strings.ToLower(path.Ext(u.Path))
		}
	}
	return strings.ToLower(filepath.Ext(source))
}

// open fetches and decodes source.
func (e *Engine) open(source string) (beep.StreamSeekCloser, beep.Format, error) {
	if source == "" {
		return nil, beep.Format{}, domain.NewAudioEngineError("load", source, "empty source", nil)
	}

	rc, err := e.fetch(source)
	if err != nil {
		return nil, beep.Format{}, err
	}

	streamer, format, err := decode(rc, extension(source))
	if err != nil {
		_ = rc.Close()
		return nil, beep.Format{}, domain.NewAudioEngineError("load", source, "failed to decode", err)
	}
	return streamer, format, nil
}

func (e *Engine) fetch(source string) (io.ReadCloser, error) {
	if !isRemote(source) {
		f, err := os.Open(source)
		if err != nil {
			return nil, domain.NewAudioEngineError("load", source, "failed to open file", err)
		}
		return f, nil
	}

	res, err := e.http.R().
		SetContext(context.Background()).
		SetHeader("X-Request-ID", uuid.NewString()).
		Get(source)
	if err != nil {
		return nil, domain.NewAudioEngineError("load", source, "download failed",
			domain.NewNetworkError("load", source, err))
	}
	if !res.IsSuccess() {
		return nil, domain.NewAudioEngineError("load", source,
			fmt.Sprintf("unexpected HTTP status %d", res.StatusCode()), domain.ErrPlaybackFailed)
	}
	return bytesSource{bytes.NewReader(res.Bytes())}, nil
}

// decode picks a decoder by extension. Unknown extensions are tried as mp3,
// which is what catalog URLs without a suffix usually serve.
func decode(rc io.ReadCloser, ext string) (beep.StreamSeekCloser, beep.Format, error) {
	switch ext {
	case extWAV:
		return wav.Decode(rc)
	case extMP3, "":
		return mp3.Decode(rc)
	default:
		s, f, err := mp3.Decode(rc)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
		}
		return s, f, nil
	}
}
