package beep

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/logger"
)

var testFormat = beep.Format{SampleRate: 22050, NumChannels: 1, Precision: 2}

// writeWAV writes one second of silence to dir/name.
func writeWAV(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, wav.Encode(f, beep.Silence(int(testFormat.SampleRate)), testFormat))
	return path
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"/music/song.MP3":                   ".mp3",
		"clip.wav":                          ".wav",
		"http://cdn.test/a/b.mp3?sig=x.wav": ".mp3",
		"https://cdn.test/stream":           "",
		"noext":                             "",
	}
	for in, want := range tests {
		assert.Equal(t, want, extension(in), in)
	}
}

func TestMetadataReader_WAV(t *testing.T) {
	path := writeWAV(t, t.TempDir(), "Band - Tune.wav")

	track, err := NewMetadataReader().ReadMetadata(path)
	require.NoError(t, err)

	assert.Equal(t, "Tune", track.Title)
	assert.Equal(t, "Band", track.Artist)
	assert.Equal(t, path, track.AudioURL)
	assert.Equal(t, time.Second, track.Duration)
}

func TestMetadataReader_Errors(t *testing.T) {
	reader := NewMetadataReader()

	_, err := reader.ReadMetadata("cover.jpg")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = reader.ReadMetadata(filepath.Join(t.TempDir(), "missing.mp3"))
	var engErr *domain.AudioEngineError
	assert.ErrorAs(t, err, &engErr)

	assert.ElementsMatch(t, []string{".mp3", ".wav"}, reader.SupportedExtensions())
}

func TestEngine_OpenLocal(t *testing.T) {
	engine := NewEngine(logger.NewTestLogger())
	path := writeWAV(t, t.TempDir(), "local.wav")

	streamer, format, err := engine.open(path)
	require.NoError(t, err)
	defer streamer.Close()

	assert.Equal(t, testFormat.SampleRate, format.SampleRate)
	assert.Equal(t, int(testFormat.SampleRate), streamer.Len())
}

func TestEngine_OpenRemote(t *testing.T) {
	data, err := os.ReadFile(writeWAV(t, t.TempDir(), "remote.wav"))
	require.NoError(t, err)

	var requestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Request-ID")
		if r.URL.Path != "/tracks/remote.wav" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	engine := NewEngine(logger.NewTestLogger())

	streamer, _, err := engine.open(srv.URL + "/tracks/remote.wav")
	require.NoError(t, err)
	assert.NotEmpty(t, requestID)

	// The in-memory body must be seekable.
	require.NoError(t, streamer.Seek(100))
	assert.Equal(t, 100, streamer.Position())
	require.NoError(t, streamer.Close())

	_, _, err = engine.open(srv.URL + "/tracks/missing.wav")
	var engErr *domain.AudioEngineError
	require.ErrorAs(t, err, &engErr)
	assert.ErrorIs(t, err, domain.ErrPlaybackFailed)
}

func TestEngine_RequiresInitialize(t *testing.T) {
	engine := NewEngine(logger.NewTestLogger())

	assert.False(t, engine.IsInitialized())
	_, err := engine.Load("song.mp3", time.Minute)
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
	assert.ErrorIs(t, engine.Play(1), domain.ErrInvalidTrackHandle)
	assert.NoError(t, engine.Shutdown())
}
