package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wikifeeds-api/internal/models"
	"github.com/wikifeeds-api/internal/mostread"
	"github.com/wikifeeds-api/internal/upstream"
)

// MockPageviews is a mock implementation of the pageview service.
// Top lists are keyed by platform, series by raw title.
type MockPageviews struct {
	FetchTopFunc    func(ctx context.Context, project, platform string, date time.Time) (*models.TopPageviews, error)
	FetchSeriesFunc func(ctx context.Context, req models.SeriesRequest) ([]models.DatedPageviews, error)

	Top    map[string]*models.TopPageviews
	Series map[string][]models.DatedPageviews

	mu           sync.Mutex
	TopCalls     []string
	SeriesCalls  []models.SeriesRequest
	RequestDates []time.Time
}

// Verify interface compliance
var _ mostread.PageviewsFetcher = (*MockPageviews)(nil)

func NewMockPageviews() *MockPageviews {
	return &MockPageviews{
		Top:    make(map[string]*models.TopPageviews),
		Series: make(map[string][]models.DatedPageviews),
	}
}

func (m *MockPageviews) FetchTop(ctx context.Context, project, platform string, date time.Time) (*models.TopPageviews, error) {
	m.mu.Lock()
	m.TopCalls = append(m.TopCalls, platform)
	m.RequestDates = append(m.RequestDates, date)
	m.mu.Unlock()

	if m.FetchTopFunc != nil {
		return m.FetchTopFunc(ctx, project, platform, date)
	}
	top, ok := m.Top[platform]
	if !ok {
		return nil, fmt.Errorf("mock %s: %w", platform, upstream.ErrNoData)
	}
	return top, nil
}

func (m *MockPageviews) FetchDailySeries(ctx context.Context, req models.SeriesRequest) ([]models.DatedPageviews, error) {
	m.mu.Lock()
	m.SeriesCalls = append(m.SeriesCalls, req)
	m.mu.Unlock()

	if m.FetchSeriesFunc != nil {
		return m.FetchSeriesFunc(ctx, req)
	}
	series, ok := m.Series[req.Title]
	if !ok {
		return nil, fmt.Errorf("mock series %s: %w", req.Title, upstream.ErrNoData)
	}
	return series, nil
}

// MockSummaries is a mock implementation of the summary service.
// Without an entry in Summaries a title gets a summary echoing its name.
type MockSummaries struct {
	FetchSummaryFunc func(ctx context.Context, domain, title, acceptLanguage string) (*models.Summary, error)

	Summaries map[string]*models.Summary
	Errors    map[string]error

	mu    sync.Mutex
	Calls []string
}

// Verify interface compliance
var _ mostread.SummaryFetcher = (*MockSummaries)(nil)

func NewMockSummaries() *MockSummaries {
	return &MockSummaries{
		Summaries: make(map[string]*models.Summary),
		Errors:    make(map[string]error),
	}
}

func (m *MockSummaries) FetchSummary(ctx context.Context, domain, title, acceptLanguage string) (*models.Summary, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, title)
	m.mu.Unlock()

	if m.FetchSummaryFunc != nil {
		return m.FetchSummaryFunc(ctx, domain, title, acceptLanguage)
	}
	if err, ok := m.Errors[title]; ok {
		return nil, err
	}
	if s, ok := m.Summaries[title]; ok {
		cp := *s
		return &cp, nil
	}
	return &models.Summary{Title: title, NormalizedTitle: title, Extract: "Extract of " + title}, nil
}

// MockSiteInfo is a mock site metadata provider
type MockSiteInfo struct {
	GetFunc func(ctx context.Context, domain string) (*models.SiteInfo, error)
	Site    *models.SiteInfo
	Err     error
}

// Verify interface compliance
var _ mostread.SiteInfoProvider = (*MockSiteInfo)(nil)

// NewMockSiteInfo returns a provider serving an English-like site
func NewMockSiteInfo() *MockSiteInfo {
	return &MockSiteInfo{
		Site: &models.SiteInfo{
			Domain:   "en.wikipedia.org",
			MainPage: "Main Page",
			Lang:     "en",
			Case:     "first-letter",
			Namespaces: []models.NamespaceInfo{
				{ID: -1, Name: "Special", Canonical: "Special", Case: "first-letter"},
				{ID: 0, Name: "", Case: "first-letter"},
				{ID: 1, Name: "Talk", Canonical: "Talk", Case: "first-letter"},
				{ID: 2, Name: "User", Canonical: "User", Case: "first-letter"},
				{ID: 4, Name: "Wikipedia", Canonical: "Project", Case: "first-letter"},
			},
			Aliases: map[string]int{"WP": 4},
		},
	}
}

func (m *MockSiteInfo) Get(ctx context.Context, domain string) (*models.SiteInfo, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, domain)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Site, nil
}
