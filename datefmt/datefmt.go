// Package datefmt formats CMS timestamps for display as "DD mon YYYY" with a
// locale-specific abbreviated month.
package datefmt

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/language"
)

var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

var months = map[language.Tag][12]string{
	language.BrazilianPortuguese: {"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"},
	language.English:             {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	language.Spanish:             {"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"},
}

var supported = []language.Tag{language.BrazilianPortuguese, language.English, language.Spanish}

var matcher = language.NewMatcher(supported)

// Formatter renders dates for one locale and time zone.
type Formatter struct {
	Locale   language.Tag
	Location *time.Location
}

// New returns a Formatter for a BCP 47 locale such as "pt-BR". Unknown locales
// fall back to the closest supported one.
func New(locale string, loc *time.Location) Formatter {
	_, idx := language.MatchStrings(matcher, locale)
	if loc == nil {
		loc = time.UTC
	}
	return Formatter{Locale: supported[idx], Location: loc}
}

var defaultFormatter = Formatter{Locale: language.BrazilianPortuguese, Location: time.UTC}

// Format formats date with the pt-BR locale in UTC.
func Format(date string) (string, error) {
	return defaultFormatter.Format(date)
}

// Format parses date and returns it as "02 mon 2006".
func (f Formatter) Format(date string) (string, error) {
	t, err := Parse(date)
	if err != nil {
		return "", err
	}
	return f.FormatTime(t), nil
}

// FormatTime formats an already parsed time.
func (f Formatter) FormatTime(t time.Time) string {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	names, ok := months[f.Locale]
	if !ok {
		names = months[language.BrazilianPortuguese]
	}
	return t.Format("02") + " " + names[t.Month()-1] + " " + strconv.Itoa(t.Year())
}

// Parse accepts RFC 3339, the CMS's "+0000" offset form, and plain dates.
func Parse(date string) (time.Time, error) {
	var err error
	for _, layout := range layouts {
		var t time.Time
		if t, err = time.Parse(layout, date); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("datefmt: invalid date %q: %w", date, err)
}
