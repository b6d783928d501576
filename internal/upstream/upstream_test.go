package upstream_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikifeeds-api/internal/config"
	"github.com/wikifeeds-api/internal/models"
	"github.com/wikifeeds-api/internal/upstream"
)

func newClient() *upstream.Client {
	return upstream.NewClient(config.UpstreamConfig{Timeout: 2 * time.Second, UserAgent: "wikifeeds-test"}, zerolog.Nop())
}

func TestFetchTop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metrics/pageviews/top/cu.wikipedia/all-access/2021/09/05", r.URL.Path)
		assert.Equal(t, "wikifeeds-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"project":"cu.wikipedia","access":"all-access","year":"2021","month":"09","day":"05",
			"articles":[{"article":"Словѣньскъ_ѩꙁꙑкъ","views":10,"rank":1}]}]}`))
	}))
	defer srv.Close()

	c := upstream.NewPageviewsClient(newClient(), srv.URL+"/")
	top, err := c.FetchTop(context.Background(), "cu.wikipedia", models.PlatformAll, time.Date(2021, 9, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, top.Articles, 1)
	assert.Equal(t, "Словѣньскъ_ѩꙁꙑкъ", top.Articles[0].Title)
	assert.Equal(t, 10, top.Articles[0].Views)

	date, err := top.ResultDate()
	require.NoError(t, err)
	assert.Equal(t, "2021-09-05Z", models.FormatResultDate(date))
}

func TestFetchTop_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := upstream.NewPageviewsClient(newClient(), srv.URL)
	_, err := c.FetchTop(context.Background(), "en.wikipedia", models.PlatformAll, time.Now())
	assert.True(t, errors.Is(err, upstream.ErrNoData))
}

func TestFetchTop_EmptyItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	c := upstream.NewPageviewsClient(newClient(), srv.URL)
	_, err := c.FetchTop(context.Background(), "en.wikipedia", models.PlatformAll, time.Now())
	assert.True(t, errors.Is(err, upstream.ErrNoData))
}

func TestFetchTop_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := upstream.NewPageviewsClient(newClient(), srv.URL)
	_, err := c.FetchTop(context.Background(), "en.wikipedia", models.PlatformAll, time.Now())

	var statusErr *upstream.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func newRetryingClient(retries int) *upstream.Client {
	return upstream.NewClient(config.UpstreamConfig{
		Timeout:       2 * time.Second,
		MaxRetries:    retries,
		RetryInterval: time.Millisecond,
	}, zerolog.Nop())
}

func TestFetchTop_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"items":[{"year":"2021","month":"09","day":"05","articles":[{"article":"Foo","views":1,"rank":1}]}]}`))
	}))
	defer srv.Close()

	c := upstream.NewPageviewsClient(newRetryingClient(2), srv.URL)
	top, err := c.FetchTop(context.Background(), "en.wikipedia", models.PlatformAll, time.Now())
	require.NoError(t, err)
	assert.Len(t, top.Articles, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchTop_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := upstream.NewPageviewsClient(newRetryingClient(1), srv.URL)
	_, err := c.FetchTop(context.Background(), "en.wikipedia", models.PlatformAll, time.Now())

	var statusErr *upstream.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchTop_NoRetryOnNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := upstream.NewPageviewsClient(newRetryingClient(3), srv.URL)
	_, err := c.FetchTop(context.Background(), "en.wikipedia", models.PlatformAll, time.Now())
	assert.True(t, errors.Is(err, upstream.ErrNoData))
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchTop_NoRetryOnMalformedBody(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := upstream.NewPageviewsClient(newRetryingClient(3), srv.URL)
	_, err := c.FetchTop(context.Background(), "en.wikipedia", models.PlatformAll, time.Now())
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchDailySeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t,
			"/metrics/pageviews/per-article/en.wikipedia/all-access/user/AC%2FDC/daily/20161227/20161231",
			r.URL.EscapedPath())
		w.Write([]byte(`{"items":[
			{"timestamp":"2016122700","views":1},
			{"timestamp":"2016122800","views":2},
			{"timestamp":"2016122900","views":3},
			{"timestamp":"2016123000","views":4},
			{"timestamp":"2016123100","views":5}]}`))
	}))
	defer srv.Close()

	c := upstream.NewPageviewsClient(newClient(), srv.URL)
	series, err := c.FetchDailySeries(context.Background(), models.SeriesRequest{
		Project:  "en.wikipedia",
		Platform: models.PlatformAll,
		Agent:    models.AgentUser,
		Title:    "AC/DC",
		Start:    time.Date(2016, 12, 27, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2016, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, series, 5)
	assert.Equal(t, models.DatedPageviews{Date: "2016-12-27Z", Views: 1}, series[0])
	assert.Equal(t, models.DatedPageviews{Date: "2016-12-31Z", Views: 5}, series[4])
}

func TestFetchSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/en.wikipedia.org/api/rest_v1/page/summary/Albert_Einstein", r.URL.Path)
		assert.Equal(t, "en-GB", r.Header.Get("Accept-Language"))
		w.Write([]byte(`{"title":"Albert Einstein","displaytitle":"Albert Einstein","extract":"Physicist.","pageid":736}`))
	}))
	defer srv.Close()

	c := upstream.NewSummaryClient(newClient(), srv.URL+"/{domain}/api/rest_v1")
	s, err := c.FetchSummary(context.Background(), "en.wikipedia.org", "Albert Einstein", "en-GB")
	require.NoError(t, err)
	assert.Equal(t, "Albert_Einstein", s.Title)
	assert.Equal(t, "Albert Einstein", s.NormalizedTitle)
	assert.Equal(t, "Physicist.", s.Extract)
	assert.Equal(t, 736, s.PageID)
}

func TestFetchSiteInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "query", r.URL.Query().Get("action"))
		assert.Equal(t, "siteinfo", r.URL.Query().Get("meta"))
		w.Write([]byte(`{"query":{
			"general":{"mainpage":"Main Page","lang":"zh","case":"first-letter"},
			"namespaces":{
				"0":{"id":0,"case":"first-letter","name":""},
				"1":{"id":1,"case":"first-letter","name":"Talk","canonical":"Talk"},
				"-1":{"id":-1,"case":"first-letter","name":"Special","canonical":"Special"}},
			"namespacealiases":[{"id":1,"alias":"TK"}],
			"languagevariants":{"zh":{"zh":{},"zh-hans":{},"zh-hant":{}}}}}`))
	}))
	defer srv.Close()

	c := upstream.NewSiteInfoClient(newClient(), srv.URL+"/{domain}/w/api.php")
	si, err := c.FetchSiteInfo(context.Background(), "zh.wikipedia.org")
	require.NoError(t, err)

	assert.Equal(t, "Main Page", si.MainPage)
	assert.Equal(t, "zh.wikipedia.org", si.Domain)
	require.Len(t, si.Namespaces, 3)
	assert.Equal(t, -1, si.Namespaces[0].ID)
	assert.Equal(t, "Talk", si.Namespaces[2].Name)
	assert.Equal(t, 1, si.Aliases["TK"])
	assert.True(t, si.HasVariants())
	assert.Len(t, si.Variants, 3)
}

func TestFetchSiteInfo_MissingMainPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query":{"general":{}}}`))
	}))
	defer srv.Close()

	c := upstream.NewSiteInfoClient(newClient(), srv.URL+"/{domain}")
	_, err := c.FetchSiteInfo(context.Background(), "en.wikipedia.org")
	assert.Error(t, err)
}

func TestProject(t *testing.T) {
	assert.Equal(t, "en.wikipedia", upstream.Project("en.wikipedia.org"))
	assert.Equal(t, "commons.wikimedia", upstream.Project("commons.wikimedia.org"))
	assert.Equal(t, "localhost", upstream.Project("localhost"))
}

func TestHostRateLimiter(t *testing.T) {
	l := upstream.NewHostRateLimiter(time.Millisecond, 1)
	ctx := context.Background()

	require.NoError(t, l.WaitForHost(ctx, "https://en.wikipedia.org/a"))
	require.NoError(t, l.WaitForHost(ctx, "https://en.wikipedia.org/b"))
	assert.Error(t, l.WaitForHost(ctx, "/relative"))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	slow := upstream.NewHostRateLimiter(time.Hour, 1)
	require.NoError(t, slow.WaitForHost(ctx, "https://de.wikipedia.org/"))
	assert.Error(t, slow.WaitForHost(cancelled, "https://de.wikipedia.org/"))
}
