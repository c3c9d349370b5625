package widgets

import "sync"

// Marquee scrolls text that is wider than a fixed number of characters.
// Each Rotate call moves the text one rune to the left.
type Marquee struct {
	mu    sync.Mutex
	runes []rune
	width int
}

// NewMarquee creates a marquee for text that fits width runes.
func NewMarquee(text string, width int) *Marquee {
	m := &Marquee{width: width}
	m.SetText(text)
	return m
}

// SetText replaces the scrolled text and restarts the scroll.
func (m *Marquee) SetText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	runes := []rune(text)
	if len(runes) > m.width {
		runes = append(runes, []rune("    ")...)
	}
	m.runes = runes
}

// Rotate advances the text one rune and returns it. Text that fits is
// returned unchanged.
func (m *Marquee) Rotate() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.runes) <= m.width {
		return string(m.runes)
	}
	m.runes = append(m.runes[1:], m.runes[0])
	return string(m.runes)
}

// Scrolls reports whether the text is wide enough to scroll.
func (m *Marquee) Scrolls() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runes) > m.width
}
