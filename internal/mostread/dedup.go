package mostread

import "github.com/wikifeeds-api/internal/models"

// MergeFunc folds a later duplicate into the record of its first occurrence
type MergeFunc[T any] func(orig, dupe T) T

// MergeDuplicates collapses items sharing a key into one record per key, kept
// at the position of the key's first occurrence. Later occurrences are folded
// in with merge. Running it on its own output is a no-op.
func MergeDuplicates[T any](items []T, key func(T) string, merge MergeFunc[T]) []T {
	index := make(map[string]int, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if i, seen := index[k]; seen {
			out[i] = merge(out[i], item)
			continue
		}
		index[k] = len(out)
		out = append(out, item)
	}
	return out
}

// MergeArticleViews adds the views of dupe to orig. View history is summed per
// date over the dates of orig only; dates that only dupe carries are dropped.
// Neither argument is modified.
func MergeArticleViews(orig, dupe *models.ResolvedArticle) *models.ResolvedArticle {
	merged := *orig
	merged.Views += dupe.Views

	byDate := make(map[string]int, len(dupe.ViewHistory))
	for _, p := range dupe.ViewHistory {
		byDate[p.Date] += p.Views
	}

	merged.ViewHistory = make([]models.DatedPageviews, len(orig.ViewHistory))
	for i, p := range orig.ViewHistory {
		p.Views += byDate[p.Date]
		merged.ViewHistory[i] = p
	}
	return &merged
}

// ArticleKey keys articles by canonical title
func ArticleKey(a *models.ResolvedArticle) string {
	return a.CanonicalTitle()
}

// DedupArticles merges redirect duplicates of the same canonical article
func DedupArticles(articles []*models.ResolvedArticle) []*models.ResolvedArticle {
	return MergeDuplicates(articles, ArticleKey, MergeArticleViews)
}
