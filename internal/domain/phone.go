package domain

import "strings"

// PhoneDigits is the required length of a normalized phone number.
const PhoneDigits = 11

// NormalizePhone strips every non-digit character.
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone renders up to eleven digits as +7 (999) 123-45-67.
// Partial input is formatted as far as it goes, which lets entry widgets
// reformat on every keystroke.
func FormatPhone(raw string) string {
	d := NormalizePhone(raw)
	if d == "" {
		return ""
	}
	if len(d) > PhoneDigits {
		d = d[:PhoneDigits]
	}

	var b strings.Builder
	b.WriteString("+")
	b.WriteString(d[:1])
	rest := d[1:]
	groups := []struct {
		n      int
		prefix string
		suffix string
	}{
		{3, " (", ")"},
		{3, " ", ""},
		{2, "-", ""},
		{2, "-", ""},
	}
	for _, g := range groups {
		if rest == "" {
			break
		}
		n := min(g.n, len(rest))
		b.WriteString(g.prefix)
		b.WriteString(rest[:n])
		if n == g.n {
			b.WriteString(g.suffix)
		}
		rest = rest[n:]
	}
	return b.String()
}

// MaskPhone hides all but the last four digits, for logs.
func MaskPhone(raw string) string {
	d := NormalizePhone(raw)
	if len(d) <= 4 {
		return strings.Repeat("*", len(d))
	}
	return strings.Repeat("*", len(d)-4) + d[len(d)-4:]
}
