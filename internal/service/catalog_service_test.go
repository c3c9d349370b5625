package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formleszs/music-app/internal/adapter/eventbus"
	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/logger"
)

const sampleCatalog = `title,artist,albumArtUrl,durationSeconds,audioUrl,genre,mood
Shape of Rain,Ada Lux,http://img/1.jpg,180,http://cdn/1.mp3,Rock,Energetic
Quiet Hours,Bo Ren,http://img/2.jpg,240,http://cdn/2.mp3,Jazz,Calm
Broken Row,only,three
Night Drive,Ada Lux,http://img/3.jpg,200.5,http://cdn/3.mp3,rock,Calm
Lo-fi Loop,Cy,http://img/4.jpg,95,http://cdn/4.mp3
`

type stringSource struct {
	body string
	err  error
}

func (s stringSource) Open(context.Context) (io.ReadCloser, error) {
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader(s.body)), nil
}

func (s stringSource) Location() string { return "memory" }

func newTestCatalog(t *testing.T, body string) (*CatalogService, *eventbus.SyncEventBus, *eventRecorder) {
	t.Helper()
	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	t.Cleanup(func() { _ = bus.Close() })
	events := recordEvents(bus)
	return NewCatalogService(log, stringSource{body: body}, bus), bus, events
}

func TestParseCatalog(t *testing.T) {
	tracks, report, err := ParseCatalog(strings.NewReader("title,artist,albumArtUrl,durationSeconds,audioUrl\nt1,a1,art1,180,u1\n"))
	require.NoError(t, err)
	require.Len(t, tracks, 1)

	assert.Equal(t, domain.Track{
		ID:          1,
		Title:       "t1",
		Artist:      "a1",
		AlbumArtURL: "art1",
		Duration:    180 * time.Second,
		AudioURL:    "u1",
	}, tracks[0])
	assert.Equal(t, 1, report.Accepted)
	assert.Equal(t, 0, report.Skipped)
}

func TestParseCatalog_SkipsMalformed(t *testing.T) {
	tracks, report, err := ParseCatalog(strings.NewReader(sampleCatalog))
	require.NoError(t, err)

	require.Len(t, tracks, 4)
	assert.Equal(t, []int{1, 2, 3, 4}, []int{tracks[0].ID, tracks[1].ID, tracks[2].ID, tracks[3].ID})
	assert.Equal(t, "Night Drive", tracks[2].Title)
	assert.Equal(t, 200500*time.Millisecond, tracks[2].Duration)
	assert.Empty(t, tracks[3].Genre)

	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Problems, 1)
	assert.Equal(t, 4, report.Problems[0].Line)
}

func TestParseCatalog_RowRules(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"six fields", "t,a,art,10,u,rock"},
		{"blank title", " ,a,art,10,u"},
		{"negative duration", "t,a,art,-1,u"},
		{"text duration", "t,a,art,long,u"},
		{"nan duration", "t,a,art,NaN,u"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracks, report, err := ParseCatalog(strings.NewReader("header\n" + tt.row + "\n"))
			require.NoError(t, err)
			assert.Empty(t, tracks)
			assert.Equal(t, 1, report.Skipped)
		})
	}
}

func TestParseCatalog_EmptyAndHeaderOnly(t *testing.T) {
	tracks, report, err := ParseCatalog(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, tracks)
	assert.Equal(t, 0, report.Accepted)

	tracks, _, err = ParseCatalog(strings.NewReader("title,artist,albumArtUrl,durationSeconds,audioUrl\n"))
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestParseCatalog_QuotedFields(t *testing.T) {
	body := "h\n\"Hello, World\",\"Ann \"\"A\"\"\",art,60,u\n"
	tracks, _, err := ParseCatalog(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Hello, World", tracks[0].Title)
	assert.Equal(t, `Ann "A"`, tracks[0].Artist)
}

func TestParseCatalog_UnterminatedQuote(t *testing.T) {
	body := "title,artist,albumArtUrl,durationSeconds,audioUrl\n" +
		"t1,a1,,60,u1\n" +
		"\"bad,row\n" +
		"t2,a2,,60,u2\r\n" +
		"\n" +
		"t3,a3,,60,u3\n"

	tracks, report, err := ParseCatalog(strings.NewReader(body))
	require.NoError(t, err)

	require.Len(t, tracks, 3)
	assert.Equal(t, []string{"t1", "t2", "t3"}, []string{tracks[0].Title, tracks[1].Title, tracks[2].Title})
	assert.Equal(t, 3, tracks[2].ID)
	assert.Equal(t, "u2", tracks[1].AudioURL)

	assert.Equal(t, 3, report.Accepted)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Problems, 1)
	assert.Equal(t, 3, report.Problems[0].Line)
	assert.Contains(t, report.Problems[0].Reason, "malformed csv")
}

func TestWriteCatalog_KeepsOneTrackPerLine(t *testing.T) {
	in := []domain.Track{
		{Title: "Two\nLines", Artist: "X\r\nY", Duration: time.Second, AudioURL: "/m/a.mp3"},
		{Title: "Next", Duration: time.Second, AudioURL: "/m/b.mp3"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCatalog(&buf, in))
	assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 3)

	out, report, err := ParseCatalog(&buf)
	require.NoError(t, err)
	require.Zero(t, report.Skipped)
	require.Len(t, out, 2)
	assert.Equal(t, "Two Lines", out[0].Title)
	assert.Equal(t, "X Y", out[0].Artist)
}

func TestWriteCatalog_RoundTrip(t *testing.T) {
	in := []domain.Track{
		{Title: "A, b", Artist: "X", AlbumArtURL: "art", Duration: 90 * time.Second, AudioURL: "/m/a.mp3", Genre: "Pop", Mood: "Happy"},
		{Title: "C", Artist: "Y", Duration: 1500 * time.Millisecond, AudioURL: "/m/c.mp3"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCatalog(&buf, in))
	assert.True(t, strings.HasPrefix(buf.String(), "title,artist,albumArtUrl,durationSeconds,audioUrl,genre,mood\n"))

	out, report, err := ParseCatalog(&buf)
	require.NoError(t, err)
	require.Equal(t, 0, report.Skipped)
	require.Len(t, out, 2)
	assert.Equal(t, "A, b", out[0].Title)
	assert.Equal(t, "Happy", out[0].Mood)
	assert.Equal(t, 1500*time.Millisecond, out[1].Duration)
}

func TestCatalogService_Load(t *testing.T) {
	catalog, _, events := newTestCatalog(t, sampleCatalog)
	assert.False(t, catalog.Loaded())

	require.NoError(t, catalog.Load(context.Background()))

	assert.True(t, catalog.Loaded())
	assert.Len(t, catalog.Tracks(), 4)
	view, criteria := catalog.View()
	assert.Len(t, view, 4)
	assert.True(t, criteria.IsZero())

	loaded := events.ofType(domain.EventCatalogLoaded)
	require.Len(t, loaded, 1)
	e := loaded[0].(domain.CatalogLoadedEvent)
	assert.Equal(t, 4, e.Count)
	assert.Equal(t, 1, e.Skipped)
	assert.Equal(t, "memory", e.Source)
}

func TestCatalogService_LoadSourceError(t *testing.T) {
	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	defer bus.Close()
	netErr := domain.NewNetworkError("catalog", "http://x", errors.New("refused"))
	catalog := NewCatalogService(log, stringSource{err: netErr}, bus)

	err := catalog.Load(context.Background())

	var target *domain.NetworkError
	assert.ErrorAs(t, err, &target)
	assert.False(t, catalog.Loaded())
}

func TestCatalogService_Filter(t *testing.T) {
	catalog, _, _ := newTestCatalog(t, sampleCatalog)
	require.NoError(t, catalog.Load(context.Background()))

	titles := func(tracks []domain.Track) []string {
		out := make([]string, 0, len(tracks))
		for _, tr := range tracks {
			out = append(out, tr.Title)
		}
		return out
	}

	assert.Equal(t, []string{"Shape of Rain", "Night Drive"}, titles(catalog.Filter(domain.Criteria{Genre: "rock"})))
	assert.Equal(t, []string{"Night Drive"}, titles(catalog.Filter(domain.Criteria{Genre: "Rock", Mood: "calm"})))
	assert.Len(t, catalog.Filter(domain.Criteria{Genre: "all", Mood: "ALL"}), 4)
	assert.Len(t, catalog.Filter(domain.Criteria{}), 4)
	assert.Empty(t, catalog.Filter(domain.Criteria{Genre: "Metal"}))
}

func TestCatalogService_Search(t *testing.T) {
	catalog, _, _ := newTestCatalog(t, sampleCatalog)
	require.NoError(t, catalog.Load(context.Background()))

	assert.Len(t, catalog.Search("ada"), 2)
	assert.Len(t, catalog.Search("QUIET"), 1)
	assert.Len(t, catalog.Search(""), 4)
	assert.Len(t, catalog.Search("   "), 4)
	assert.Empty(t, catalog.Search("zzz"))
}

func TestCatalogService_SelectPublishesView(t *testing.T) {
	catalog, _, events := newTestCatalog(t, sampleCatalog)

	_, err := catalog.Select(domain.Criteria{Genre: "rock"})
	assert.ErrorIs(t, err, domain.ErrCatalogNotLoaded)

	require.NoError(t, catalog.Load(context.Background()))

	view, err := catalog.Select(domain.Criteria{Genre: "rock", Query: "night"})
	require.NoError(t, err)
	require.Len(t, view, 1)
	assert.Equal(t, 3, view[0].ID)

	changed := events.ofType(domain.EventViewChanged)
	require.Len(t, changed, 1)
	e := changed[0].(domain.ViewChangedEvent)
	assert.Equal(t, view, e.Tracks)
	assert.Equal(t, "night", e.Criteria.Query)

	current, criteria := catalog.View()
	assert.Equal(t, view, current)
	assert.Equal(t, "rock", criteria.Genre)
}

func TestCatalogService_SelectFeedsPlayer(t *testing.T) {
	f := newTestPlayer(t)
	catalog := NewCatalogService(logger.NewTestLogger(), stringSource{body: sampleCatalog}, f.bus)
	require.NoError(t, catalog.Load(context.Background()))

	_, err := catalog.Select(domain.Criteria{Mood: "calm"})
	require.NoError(t, err)

	state := f.player.GetState()
	require.Len(t, state.Tracks, 2)
	assert.Equal(t, "Quiet Hours", state.CurrentTrack().Title)
	assert.Equal(t, domain.StatusPlaying, state.Status)
	assert.Equal(t, []string{"http://cdn/2.mp3"}, f.engine.Loads())

	// An empty view empties the player.
	_, err = catalog.Select(domain.Criteria{Genre: "Metal"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmpty, f.player.GetState().Status)
}

func TestCatalogService_ReplaceResetsPlayerAndRatings(t *testing.T) {
	f := newTestPlayer(t)
	log := logger.NewTestLogger()
	session := &fakeSession{}
	session.authenticated.Store(true)
	ratings := NewRatingService(log, session, f.bus)
	catalog := NewCatalogService(log, stringSource{body: sampleCatalog}, f.bus)

	require.NoError(t, catalog.Load(context.Background()))
	_, err := catalog.Select(domain.Criteria{})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPlaying, f.player.GetState().Status)
	_, err = ratings.ToggleLike(2)
	require.NoError(t, err)
	f.events.reset()

	catalog.Replace("/music", []domain.Track{
		{Title: "Scanned A", AudioURL: "/music/a.mp3"},
		{Title: "Scanned B", AudioURL: "/music/b.mp3"},
	})

	assert.Empty(t, ratings.Liked())
	assert.Empty(t, catalog.Favorites(ratings.Liked()))
	assert.Equal(t, domain.RatingNone, ratings.Rating(2))
	cleared := f.events.ofType(domain.EventRatingChanged)
	require.Len(t, cleared, 1)
	assert.Equal(t, 2, cleared[0].(domain.RatingChangedEvent).TrackID)

	state := f.player.GetState()
	assert.Equal(t, domain.StatusEmpty, state.Status)
	assert.Empty(t, state.Tracks)
	assert.Equal(t, 0, f.engine.LoadedTracks())

	view, _ := catalog.View()
	require.NoError(t, f.player.Load(view))
	state = f.player.GetState()
	assert.Equal(t, view, state.Tracks)
	assert.Equal(t, "Scanned A", state.CurrentTrack().Title)
	loads := f.engine.Loads()
	assert.Equal(t, "/music/a.mp3", loads[len(loads)-1])
}

func TestCatalogService_Options(t *testing.T) {
	catalog, _, _ := newTestCatalog(t, sampleCatalog)
	require.NoError(t, catalog.Load(context.Background()))

	assert.Equal(t, []string{"Jazz", "Rock"}, catalog.Genres())
	assert.Equal(t, []string{"Calm", "Energetic"}, catalog.Moods())
}

func TestCatalogService_FavoritesAndLookup(t *testing.T) {
	catalog, _, _ := newTestCatalog(t, sampleCatalog)
	require.NoError(t, catalog.Load(context.Background()))

	favs := catalog.Favorites([]int{4, 1, 99})
	require.Len(t, favs, 2)
	assert.Equal(t, 1, favs[0].ID)
	assert.Equal(t, 4, favs[1].ID)

	track, err := catalog.TrackByID(2)
	require.NoError(t, err)
	assert.Equal(t, "Quiet Hours", track.Title)

	_, err = catalog.TrackByID(42)
	assert.ErrorIs(t, err, domain.ErrTrackNotFound)
}

func TestCatalogService_Replace(t *testing.T) {
	catalog, _, events := newTestCatalog(t, "")
	assert.False(t, catalog.Loaded())

	scanned := []domain.Track{
		{ID: 7, Title: "Scanned A", AudioURL: "/music/a.mp3"},
		{ID: 3, Title: "Scanned B", AudioURL: "/music/b.mp3"},
	}
	catalog.Replace("/music", scanned)

	require.True(t, catalog.Loaded())
	tracks := catalog.Tracks()
	require.Len(t, tracks, 2)
	assert.Equal(t, 1, tracks[0].ID)
	assert.Equal(t, 2, tracks[1].ID)
	assert.Equal(t, 7, scanned[0].ID, "input must not be modified")

	view, criteria := catalog.View()
	assert.Equal(t, tracks, view)
	assert.True(t, criteria.IsZero())

	loaded := events.ofType(domain.EventCatalogLoaded)
	require.Len(t, loaded, 1)
	e := loaded[0].(domain.CatalogLoadedEvent)
	assert.Equal(t, "/music", e.Source)
	assert.Equal(t, 2, e.Count)
}
