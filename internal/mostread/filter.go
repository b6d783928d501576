package mostread

import (
	"math"

	"github.com/wikifeeds-api/internal/models"
	"github.com/wikifeeds-api/internal/title"
)

// IsInMainNamespace reports whether the article lives in the content namespace
func IsInMainNamespace(a *models.ResolvedArticle) bool {
	return a.NamespaceID == models.MainNamespace
}

// IsNotMainPage reports whether canonicalTitle is something other than the
// site's main page. The comparison ignores case.
func IsNotMainPage(canonicalTitle, mainPage string) bool {
	return !title.EqualFold(canonicalTitle, mainPage)
}

// BotFilter drops entries whose views are concentrated on a single platform.
// An entry with total views V and desktop views D is kept when
// t*V <= D <= (1-t)*V.
type BotFilter struct {
	threshold float64
}

// NewBotFilter creates a BotFilter. threshold must lie in [0, 1].
func NewBotFilter(threshold float64) (*BotFilter, error) {
	if threshold < 0 || threshold > 1 || math.IsNaN(threshold) {
		return nil, ErrInvalidThreshold
	}
	return &BotFilter{threshold: threshold}, nil
}

// Threshold returns the configured threshold
func (f *BotFilter) Threshold() float64 {
	return f.threshold
}

// Keep reports whether desktop views D out of total views V look human
func (f *BotFilter) Keep(total, desktop int) bool {
	v := float64(total)
	d := float64(desktop)
	return d >= v*f.threshold && d <= v*(1-f.threshold)
}

// Filter returns the combined entries that pass the heuristic, in order.
// Entries with no desktop counterpart are dropped. When the desktop list
// repeats a title the last occurrence counts.
func (f *BotFilter) Filter(combined, desktop []models.PageviewEntry) []models.PageviewEntry {
	desktopViews := make(map[string]int, len(desktop))
	for _, e := range desktop {
		desktopViews[e.Title] = e.Views
	}

	kept := make([]models.PageviewEntry, 0, len(combined))
	for _, e := range combined {
		d, ok := desktopViews[e.Title]
		if !ok || !f.Keep(e.Views, d) {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}
