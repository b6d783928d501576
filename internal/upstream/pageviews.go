package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wikifeeds-api/internal/models"
)

const pageviewsService = "pageviews"

// PageviewsClient queries the pageview metrics API
type PageviewsClient struct {
	client  *Client
	baseURL string
}

// NewPageviewsClient creates a PageviewsClient rooted at baseURL,
// e.g. https://wikimedia.org/api/rest_v1
func NewPageviewsClient(client *Client, baseURL string) *PageviewsClient {
	return &PageviewsClient{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

type topResponse struct {
	Items []models.TopPageviews `json:"items"`
}

// FetchTop returns the top viewed articles of project on platform for date.
// The returned list may cover a different day than requested; read its date.
func (c *PageviewsClient) FetchTop(ctx context.Context, project, platform string, date time.Time) (*models.TopPageviews, error) {
	u := fmt.Sprintf("%s/metrics/pageviews/top/%s/%s/%s",
		c.baseURL, url.PathEscape(project), url.PathEscape(platform), date.UTC().Format("2006/01/02"))

	var rsp topResponse
	if err := c.client.getJSON(ctx, pageviewsService, u, nil, &rsp); err != nil {
		return nil, err
	}
	if len(rsp.Items) == 0 {
		return nil, fmt.Errorf("%s: top list for %s is empty: %w", pageviewsService, project, ErrNoData)
	}
	return &rsp.Items[0], nil
}

type seriesResponse struct {
	Items []struct {
		Timestamp string `json:"timestamp"`
		Views     int    `json:"views"`
	} `json:"items"`
}

// FetchDailySeries returns the per-day views of one article between req.Start and req.End inclusive
func (c *PageviewsClient) FetchDailySeries(ctx context.Context, req models.SeriesRequest) ([]models.DatedPageviews, error) {
	granularity := req.Granularity
	if granularity == "" {
		granularity = models.GranularityDaily
	}
	u := fmt.Sprintf("%s/metrics/pageviews/per-article/%s/%s/%s/%s/%s/%s/%s",
		c.baseURL,
		url.PathEscape(req.Project),
		url.PathEscape(req.Platform),
		url.PathEscape(req.Agent),
		url.PathEscape(models.DBKey(req.Title)),
		url.PathEscape(granularity),
		req.Start.UTC().Format("20060102"),
		req.End.UTC().Format("20060102"),
	)

	var rsp seriesResponse
	if err := c.client.getJSON(ctx, pageviewsService, u, nil, &rsp); err != nil {
		return nil, err
	}

	out := make([]models.DatedPageviews, 0, len(rsp.Items))
	for _, item := range rsp.Items {
		date, err := parseTimestamp(item.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pageviewsService, err)
		}
		out = append(out, models.DatedPageviews{Date: date, Views: item.Views})
	}
	return out, nil
}

// parseTimestamp converts "YYYYMMDDHH" or "YYYYMMDD" into "YYYY-MM-DDZ"
func parseTimestamp(ts string) (string, error) {
	if len(ts) < 8 {
		return "", fmt.Errorf("invalid timestamp %q", ts)
	}
	t, err := time.Parse("20060102", ts[:8])
	if err != nil {
		return "", fmt.Errorf("invalid timestamp %q: %w", ts, err)
	}
	return models.FormatResultDate(t), nil
}
