package views

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// dateLocales are the locales with month abbreviations; the first one is
// used when a locale matches none of them.
var dateLocales = []language.Tag{
	language.BrazilianPortuguese,
	language.AmericanEnglish,
}

var dateMatcher = language.NewMatcher(dateLocales)

var monthAbbrevs = map[language.Tag][12]string{
	language.BrazilianPortuguese: {"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"},
	language.AmericanEnglish:     {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
}

// FormatDate renders t as "dd MMM yyyy" in loc, with month abbreviations
// for locale (a BCP 47 tag such as "pt-BR").
func FormatDate(t time.Time, locale string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	_, idx, _ := dateMatcher.Match(language.Make(locale))
	months := monthAbbrevs[dateLocales[idx]]
	return fmt.Sprintf("%02d %s %04d", t.Day(), months[t.Month()-1], t.Year())
}
