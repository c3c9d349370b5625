package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/ports"
)

// CatalogService holds the loaded catalog and the currently selected view of it.
// The catalog is replaced wholesale by Load and never mutated otherwise.
type CatalogService struct {
	logger *slog.Logger
	source ports.CatalogSource
	bus    ports.EventBus

	tracks   []domain.Track
	loaded   bool
	view     []domain.Track
	criteria domain.Criteria

	mu sync.RWMutex
}

// NewCatalogService creates a catalog service reading from source.
func NewCatalogService(logger *slog.Logger, source ports.CatalogSource, bus ports.EventBus) *CatalogService {
	return &CatalogService{
		logger: logger.With(slog.String("service", "catalog")),
		source: source,
		bus:    bus,
	}
}

// Load fetches and parses the catalog, replacing any previous one and
// resetting the view to the full catalog. Malformed rows are skipped.
func (s *CatalogService) Load(ctx context.Context) error {
	rc, err := s.source.Open(ctx)
	if err != nil {
		s.logger.Error("failed to open catalog", slog.String("source", s.source.Location()), slog.Any("error", err))
		return err
	}
	defer rc.Close()

	tracks, report, err := ParseCatalog(rc)
	if err != nil {
		return domain.NewServiceError("CatalogService", "Load", "failed to read catalog", err)
	}
	for _, p := range report.Problems {
		s.logger.Debug("skipped catalog row", slog.Int("line", p.Line), slog.String("reason", p.Reason))
	}

	s.install(tracks)

	s.logger.Info("catalog loaded",
		slog.String("source", s.source.Location()),
		slog.Int("tracks", report.Accepted),
		slog.Int("skipped", report.Skipped))
	s.bus.Publish(domain.NewCatalogLoadedEvent(s.source.Location(), report.Accepted, report.Skipped))
	return nil
}

// Replace installs tracks built elsewhere, such as a library scan, as the
// catalog. Ids are reassigned 1..n in the given order. Like Load, it
// publishes CatalogLoaded; the player and the rating store drop state keyed
// by the previous catalog when they see it.
func (s *CatalogService) Replace(origin string, tracks []domain.Track) {
	tracks = slices.Clone(tracks)
	for i := range tracks {
		tracks[i].ID = i + 1
	}
	s.install(tracks)

	s.logger.Info("catalog replaced", slog.String("origin", origin), slog.Int("tracks", len(tracks)))
	s.bus.Publish(domain.NewCatalogLoadedEvent(origin, len(tracks), 0))
}

func (s *CatalogService) install(tracks []domain.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = tracks
	s.loaded = true
	s.view = tracks
	s.criteria = domain.Criteria{}
}

// Loaded reports whether Load has succeeded at least once.
func (s *CatalogService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Tracks returns the full catalog in source order.
func (s *CatalogService) Tracks() []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tracks)
}

// Filter returns the catalog tracks matching the genre and mood of c.
// The query of c is ignored.
func (s *CatalogService) Filter(c domain.Criteria) []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FilterTracks(s.tracks, c.Genre, c.Mood)
}

// Search returns the catalog tracks whose title or artist contains query.
func (s *CatalogService) Search(query string) []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SearchTracks(s.tracks, query)
}

// Select applies genre, mood and query together, makes the result the
// current view and publishes it. The player loads every published view.
func (s *CatalogService) Select(c domain.Criteria) ([]domain.Track, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return nil, domain.ErrCatalogNotLoaded
	}
	view := SearchTracks(FilterTracks(s.tracks, c.Genre, c.Mood), c.Query)
	s.view = view
	s.criteria = c
	s.mu.Unlock()

	s.logger.Debug("catalog view selected",
		slog.String("genre", c.Genre),
		slog.String("mood", c.Mood),
		slog.String("query", c.Query),
		slog.Int("tracks", len(view)))
	s.bus.Publish(domain.NewViewChangedEvent(slices.Clone(view), c))
	return slices.Clone(view), nil
}

// View returns the current view and the criteria that produced it.
func (s *CatalogService) View() ([]domain.Track, domain.Criteria) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.view), s.criteria
}

// Genres returns the distinct non-empty genres, sorted case-insensitively.
func (s *CatalogService) Genres() []string {
	return s.distinct(func(t domain.Track) string { return t.Genre })
}

// Moods returns the distinct non-empty moods, sorted case-insensitively.
func (s *CatalogService) Moods() []string {
	return s.distinct(func(t domain.Track) string { return t.Mood })
}

func (s *CatalogService) distinct(field func(domain.Track) string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, t := range s.tracks {
		v := strings.TrimSpace(field(t))
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b string) int {
		return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return out
}

// Favorites returns the catalog tracks whose IDs are in ids, in catalog order.
func (s *CatalogService) Favorites(ids []int) []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.Track
	for _, t := range s.tracks {
		if want[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

// TrackByID looks up a catalog track.
func (s *CatalogService) TrackByID(id int) (domain.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tracks {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Track{}, domain.ErrTrackNotFound
}

// FilterTracks keeps the tracks matching genre and mood. An empty value or
// "all" matches everything; matching ignores case and surrounding space.
func FilterTracks(tracks []domain.Track, genre, mood string) []domain.Track {
	out := make([]domain.Track, 0, len(tracks))
	for _, t := range tracks {
		if matchesCriterion(t.Genre, genre) && matchesCriterion(t.Mood, mood) {
			out = append(out, t)
		}
	}
	return out
}

func matchesCriterion(value, criterion string) bool {
	if domain.IsAll(criterion) {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(value), strings.TrimSpace(criterion))
}

// SearchTracks keeps the tracks whose title or artist contains query,
// ignoring case. An empty query matches everything.
func SearchTracks(tracks []domain.Track, query string) []domain.Track {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.Track, 0, len(tracks))
	for _, t := range tracks {
		if q == "" ||
			strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Artist), q) {
			out = append(out, t)
		}
	}
	return out
}
