// Package title parses wiki page titles against site metadata.
package title

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/wikifeeds-api/internal/models"
)

// ErrInvalidTitle is returned for titles that cannot name a page, most often
// because the raw string carries invalid encoding.
var ErrInvalidTitle = errors.New("invalid title")

const illegalChars = "#<>[]|{}"

var (
	upper = cases.Upper(language.Und)
	fold  = cases.Fold()
)

// Title is a parsed page title
type Title struct {
	Namespace int
	// Prefix is the namespace name in db-key form, empty for the main namespace
	Prefix string
	// DBKey is the page name without namespace, spaces replaced by underscores
	DBKey string
}

// PrefixedDBKey returns the full db-key form including the namespace prefix
func (t *Title) PrefixedDBKey() string {
	if t.Prefix == "" {
		return t.DBKey
	}
	return t.Prefix + ":" + t.DBKey
}

// Parse normalizes raw and resolves its namespace using si
func Parse(raw string, si *models.SiteInfo) (*Title, error) {
	if !utf8.ValidString(raw) || strings.ContainsRune(raw, utf8.RuneError) {
		return nil, fmt.Errorf("%w: %q contains invalid encoding", ErrInvalidTitle, raw)
	}

	text := norm.NFC.String(strings.ReplaceAll(raw, "_", " "))
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil, fmt.Errorf("%w: empty title", ErrInvalidTitle)
	}
	for _, r := range text {
		if unicode.IsControl(r) || strings.ContainsRune(illegalChars, r) {
			return nil, fmt.Errorf("%w: %q contains illegal character %q", ErrInvalidTitle, raw, r)
		}
	}

	t := &Title{Namespace: models.MainNamespace}
	caseRule := ""
	if si != nil {
		caseRule = si.Case
	}

	if i := strings.IndexByte(text, ':'); i > 0 && si != nil {
		prefix := strings.TrimSpace(text[:i])
		if ns, ok := lookupNamespace(prefix, si); ok && ns.ID != models.MainNamespace {
			rest := strings.TrimSpace(text[i+1:])
			if rest == "" {
				return nil, fmt.Errorf("%w: %q has an empty page name", ErrInvalidTitle, raw)
			}
			t.Namespace = ns.ID
			t.Prefix = models.DBKey(ns.Name)
			if ns.Case != "" {
				caseRule = ns.Case
			}
			text = rest
		}
	}

	if caseRule != "case-sensitive" {
		text = upperFirst(text)
	}
	t.DBKey = models.DBKey(text)
	return t, nil
}

// EqualFold reports whether two titles are equal ignoring case and the
// space/underscore distinction.
func EqualFold(a, b string) bool {
	return fold.String(models.DBKey(a)) == fold.String(models.DBKey(b))
}

func lookupNamespace(prefix string, si *models.SiteInfo) (models.NamespaceInfo, bool) {
	for _, ns := range si.Namespaces {
		if EqualFold(prefix, ns.Name) || (ns.Canonical != "" && EqualFold(prefix, ns.Canonical)) {
			return ns, true
		}
	}
	for alias, id := range si.Aliases {
		if !EqualFold(prefix, alias) {
			continue
		}
		for _, ns := range si.Namespaces {
			if ns.ID == id {
				return ns, true
			}
		}
	}
	return models.NamespaceInfo{}, false
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return upper.String(string(r)) + s[size:]
}
