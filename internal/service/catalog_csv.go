package service

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/formleszs/music-app/internal/domain"
)

// CatalogHeader is the column layout written by WriteCatalog. The last two
// columns are optional when reading.
var CatalogHeader = []string{"title", "artist", "albumArtUrl", "durationSeconds", "audioUrl", "genre", "mood"}

const (
	minCatalogFields = 5
	maxCatalogFields = 7

	maxCatalogLine = 1 << 20
)

// RowProblem describes a skipped catalog row.
type RowProblem struct {
	Line   int
	Reason string
}

// ParseReport summarizes a catalog parse.
type ParseReport struct {
	Accepted int
	Skipped  int
	Problems []RowProblem
}

func (r *ParseReport) skip(line int, format string, args ...any) {
	r.Skipped++
	r.Problems = append(r.Problems, RowProblem{Line: line, Reason: fmt.Sprintf(format, args...)})
}

// ParseCatalog reads catalog CSV, one track per line. The first non-blank
// line is a header and is discarded. Rows with a field count other than five
// or seven, a blank title, an unusable duration or broken quoting are skipped
// and reported; a bad row never affects the lines after it. Track IDs are
// assigned 1..n in order of the accepted rows.
//
// Only read failures of the underlying reader are returned as errors.
func ParseCatalog(r io.Reader) ([]domain.Track, ParseReport, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxCatalogLine)

	var (
		tracks []domain.Track
		report ParseReport
		header = true
		line   int
	)
	for sc.Scan() {
		line++
		text := strings.TrimSuffix(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		if header {
			header = false
			continue
		}

		record, err := splitCatalogLine(text)
		if err != nil {
			report.skip(line, "malformed csv: %v", err)
			continue
		}
		track, reason := parseCatalogRow(record)
		if reason != "" {
			report.skip(line, "%s", reason)
			continue
		}
		track.ID = len(tracks) + 1
		tracks = append(tracks, track)
	}
	if err := sc.Err(); err != nil {
		return nil, report, fmt.Errorf("read catalog: %w", err)
	}

	report.Accepted = len(tracks)
	return tracks, report, nil
}

// splitCatalogLine splits one line into CSV fields. An open quote is closed
// by the end of the line or not at all.
func splitCatalogLine(text string) ([]string, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	record, err := cr.Read()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, perr.Err
		}
		return nil, err
	}
	return record, nil
}

func parseCatalogRow(record []string) (domain.Track, string) {
	n := len(record)
	if n != minCatalogFields && n != maxCatalogFields {
		return domain.Track{}, fmt.Sprintf("expected %d or %d fields, got %d", minCatalogFields, maxCatalogFields, n)
	}

	field := func(i int) string { return strings.TrimSpace(record[i]) }

	title := field(0)
	if title == "" {
		return domain.Track{}, "blank title"
	}

	seconds, err := strconv.ParseFloat(field(3), 64)
	if err != nil || seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return domain.Track{}, fmt.Sprintf("invalid duration %q", field(3))
	}

	track := domain.Track{
		Title:       title,
		Artist:      field(1),
		AlbumArtURL: field(2),
		Duration:    time.Duration(seconds * float64(time.Second)),
		AudioURL:    field(4),
	}
	if n == maxCatalogFields {
		track.Genre = field(5)
		track.Mood = field(6)
	}
	return track, ""
}

// WriteCatalog writes tracks as catalog CSV with a header row. Line breaks
// inside fields become spaces so every track stays on one line.
func WriteCatalog(w io.Writer, tracks []domain.Track) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CatalogHeader); err != nil {
		return err
	}
	for _, t := range tracks {
		err := cw.Write([]string{
			singleLine(t.Title),
			singleLine(t.Artist),
			singleLine(t.AlbumArtURL),
			strconv.FormatFloat(t.Duration.Seconds(), 'f', -1, 64),
			singleLine(t.AudioURL),
			singleLine(t.Genre),
			singleLine(t.Mood),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func singleLine(s string) string {
	return lineBreaks.Replace(s)
}
