package models

import "strings"

// ResolvedArticle is the per-article working record carried through the most-read
// pipeline and, once enriched, rendered into the feed payload.
type ResolvedArticle struct {
	RawTitle    string           `json:"-"`
	NamespaceID int              `json:"-"`
	Views       int              `json:"views"`
	Rank        int              `json:"rank"`
	ViewHistory []DatedPageviews `json:"view_history"`
	*Summary
}

// CanonicalTitle returns the underscore-normalized title used for comparisons.
// The summary's title wins once the article has been enriched since it reflects
// redirect resolution.
func (a *ResolvedArticle) CanonicalTitle() string {
	if a.Summary != nil && a.Summary.Title != "" {
		return DBKey(a.Summary.Title)
	}
	return DBKey(a.RawTitle)
}

// DBKey converts a title to its db-key form (spaces replaced by underscores)
func DBKey(title string) string {
	return strings.ReplaceAll(title, " ", "_")
}
