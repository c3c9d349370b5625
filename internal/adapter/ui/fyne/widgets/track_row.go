// Package widgets provides custom Fyne widgets for the music app.
package widgets

import (
	"fmt"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"github.com/formleszs/music-app/internal/domain"
)

// Ensure TrackRow implements the tap interfaces it relies on.
var (
	_ fyneapp.DoubleTappable    = (*TrackRow)(nil)
	_ fyneapp.SecondaryTappable = (*TrackRow)(nil)
)

// TrackRow is a list row for one catalog track. Double-tapping plays the
// track, a secondary tap asks for the row's context menu.
type TrackRow struct {
	widget.Label
	doubleTapped    func(index int)
	secondaryTapped func(index int, pos fyneapp.Position)
	index           int
}

// NewTrackRow creates a row that calls doubleTapped with its list index.
func NewTrackRow(doubleTapped func(index int)) *TrackRow {
	row := &TrackRow{
		doubleTapped: doubleTapped,
	}
	row.Truncation = fyneapp.TextTruncateEllipsis
	row.ExtendBaseWidget(row)
	return row
}

// Bind points the row at a track and its list index.
func (r *TrackRow) Bind(index int, track domain.Track) {
	r.index = index
	r.SetText(TrackLabel(track))
}

// Index returns the list index the row is bound to.
func (r *TrackRow) Index() int {
	return r.index
}

// DoubleTapped implements fyne.DoubleTappable.
func (r *TrackRow) DoubleTapped(_ *fyneapp.PointEvent) {
	if r.doubleTapped != nil {
		r.doubleTapped(r.index)
	}
}

// SetSecondaryTapped sets the callback for right-click (secondary tap) events.
func (r *TrackRow) SetSecondaryTapped(callback func(index int, pos fyneapp.Position)) {
	r.secondaryTapped = callback
}

// TappedSecondary implements fyne.SecondaryTappable.
func (r *TrackRow) TappedSecondary(pe *fyneapp.PointEvent) {
	if r.secondaryTapped != nil {
		r.secondaryTapped(r.index, pe.AbsolutePosition)
	}
}

// TrackLabel renders a track as "Artist - Title (m:ss)".
func TrackLabel(track domain.Track) string {
	text := track.Title
	if track.Artist != "" {
		text = fmt.Sprintf("%s - %s", track.Artist, track.Title)
	}
	if track.Duration > 0 {
		text = fmt.Sprintf("%s (%s)", text, FormatDuration(track.Duration.Seconds()))
	}
	return text
}

// FormatDuration renders seconds as m:ss.
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
