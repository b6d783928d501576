// Package denylist holds the titles that must never appear in the most-read feed.
package denylist

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wikifeeds-api/internal/models"
)

// AllLocales is the locale key whose titles are excluded on every site
const AllLocales = "*"

// DenyList maps a locale code (or AllLocales) to a set of canonical titles
type DenyList map[string]map[string]struct{}

// Entry is one denylisted title
type Entry = models.DenylistEntry

// New builds a DenyList from entries
func New(entries ...Entry) DenyList {
	d := DenyList{}
	d.Add(entries...)
	return d
}

// Add inserts entries; titles are stored in db-key form
func (d DenyList) Add(entries ...Entry) {
	for _, e := range entries {
		locale := e.Locale
		if locale == "" {
			locale = AllLocales
		}
		set, ok := d[locale]
		if !ok {
			set = make(map[string]struct{})
			d[locale] = set
		}
		set[strings.ReplaceAll(e.Title, " ", "_")] = struct{}{}
	}
}

// Merge returns a new DenyList holding the entries of d and other
func (d DenyList) Merge(other DenyList) DenyList {
	out := DenyList{}
	for _, src := range []DenyList{d, other} {
		for locale, titles := range src {
			for t := range titles {
				out.Add(Entry{Locale: locale, Title: t})
			}
		}
	}
	return out
}

// IsAllowed reports whether canonicalTitle may appear in the feed for locale.
// The comparison is exact and case-sensitive.
func (d DenyList) IsAllowed(locale, canonicalTitle string) bool {
	if _, denied := d[AllLocales][canonicalTitle]; denied {
		return false
	}
	if _, denied := d[locale][canonicalTitle]; denied {
		return false
	}
	return true
}

// Current returns d itself, so a fixed list can stand in for a Provider
func (d DenyList) Current() DenyList {
	return d
}

// Len returns the total number of entries
func (d DenyList) Len() int {
	n := 0
	for _, titles := range d {
		n += len(titles)
	}
	return n
}

// Default returns the built-in list of titles persistently in the most-read
// results that have few human viewers.
func Default() DenyList {
	return New(
		Entry{Locale: AllLocales, Title: "-"},
		Entry{Locale: AllLocales, Title: "Test_card"},
		Entry{Locale: AllLocales, Title: "Web_scraping"},
		Entry{Locale: AllLocales, Title: "XHamster"},
		Entry{Locale: AllLocales, Title: "Java_(programming_language)"},
		Entry{Locale: AllLocales, Title: "Images/upload/bel.jpg"},
		Entry{Locale: AllLocales, Title: "Superintelligence:_Paths,_Dangers,_Strategies"},
		Entry{Locale: AllLocales, Title: "Okto"},
		Entry{Locale: AllLocales, Title: "Proyecto_40"},
		Entry{Locale: AllLocales, Title: "AMGTV"},
		Entry{Locale: AllLocales, Title: "Lali_Espósito"},
		Entry{Locale: AllLocales, Title: "La7"},
		Entry{Locale: AllLocales, Title: "Vagina"},
		Entry{Locale: "mzn", Title: "کس"},
		Entry{Locale: "mzn", Title: "مقعد"},
		// T238942
		Entry{Locale: "de", Title: "Tobias_Sammet"},
		Entry{Locale: "de", Title: "Avantasia"},
		Entry{Locale: "de", Title: "Edguy"},
		Entry{Locale: "de", Title: "Pornhub"},
	)
}

// fileFormat is the YAML layout of a denylist file:
//
//	"*":
//	  - Some_title
//	de:
//	  - Other_title
type fileFormat map[string][]string

// LoadFile reads a YAML denylist file
func LoadFile(path string) (DenyList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read denylist file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML denylist content
func Parse(data []byte) (DenyList, error) {
	var raw fileFormat
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse denylist: %w", err)
	}
	d := DenyList{}
	for locale, titles := range raw {
		for _, t := range titles {
			if strings.TrimSpace(t) == "" {
				continue
			}
			d.Add(Entry{Locale: locale, Title: t})
		}
	}
	return d, nil
}

// LocaleFromDomain extracts the locale code from a site domain,
// e.g. "de.wikipedia.org" -> "de"
func LocaleFromDomain(domain string) string {
	if i := strings.IndexByte(domain, '.'); i > 0 {
		return domain[:i]
	}
	return domain
}
