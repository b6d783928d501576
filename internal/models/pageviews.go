package models

import (
	"fmt"
	"time"
)

// Platform segments understood by the pageview service
const (
	PlatformAll        = "all-access"
	PlatformDesktopWeb = "desktop"
	PlatformMobileWeb  = "mobile-web"
	PlatformMobileApp  = "mobile-app"
)

// Agent segments understood by the pageview service
const (
	AgentUser        = "user"
	AgentSpider      = "spider"
	AgentAutomated   = "automated"
	GranularityDaily = "daily"
)

// PageviewEntry is one article's ranked view count for one day on one platform
type PageviewEntry struct {
	Title string `json:"article"`
	Views int    `json:"views"`
	Rank  int    `json:"rank"`
}

// TopPageviews is the top-N list for a single day as returned by the pageview service.
// Year/Month/Day are the date the data actually covers, which may differ from the
// requested date.
type TopPageviews struct {
	Project  string          `json:"project"`
	Access   string          `json:"access"`
	Year     string          `json:"year"`
	Month    string          `json:"month"`
	Day      string          `json:"day"`
	Articles []PageviewEntry `json:"articles"`
}

// ResultDate parses the embedded year/month/day into a UTC date
func (t *TopPageviews) ResultDate() (time.Time, error) {
	d, err := time.Parse("2006-1-2", fmt.Sprintf("%s-%s-%s", t.Year, t.Month, t.Day))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid result date %s-%s-%s: %w", t.Year, t.Month, t.Day, err)
	}
	return d.UTC(), nil
}

// DatedPageviews is a single point of a view-history series
type DatedPageviews struct {
	Date  string `json:"date"`
	Views int    `json:"views"`
}

// FormatResultDate renders a date the way feed payloads carry it, e.g. "2016-12-31Z"
func FormatResultDate(t time.Time) string {
	return t.UTC().Format("2006-01-02") + "Z"
}

// SeriesRequest describes a per-article daily view-history query
type SeriesRequest struct {
	Project     string
	Platform    string
	Agent       string
	Title       string
	Granularity string
	Start       time.Time
	End         time.Time
}
