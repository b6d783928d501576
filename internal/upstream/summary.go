package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/wikifeeds-api/internal/models"
)

const summaryService = "summary"

// SummaryClient fetches page summaries from the REST content API
type SummaryClient struct {
	client      *Client
	urlTemplate string
}

// NewSummaryClient creates a SummaryClient. urlTemplate is the REST API root
// with a {domain} placeholder.
func NewSummaryClient(client *Client, urlTemplate string) *SummaryClient {
	return &SummaryClient{client: client, urlTemplate: urlTemplate}
}

// FetchSummary returns the summary of title on domain. For legacy clients the
// display title is copied to normalizedtitle and title is given in db-key form.
func (c *SummaryClient) FetchSummary(ctx context.Context, domain, title, acceptLanguage string) (*models.Summary, error) {
	u := expandDomain(c.urlTemplate, domain) + "/page/summary/" + url.PathEscape(models.DBKey(title))

	var headers http.Header
	if acceptLanguage != "" {
		headers = http.Header{"Accept-Language": []string{acceptLanguage}}
	}

	var s models.Summary
	if err := c.client.getJSON(ctx, summaryService, u, headers, &s); err != nil {
		return nil, err
	}

	s.NormalizedTitle = s.Title
	s.Title = strings.ReplaceAll(s.Title, " ", "_")
	return &s, nil
}
