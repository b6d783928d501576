// Package mostread builds the most-read articles feed of a wiki for a date:
// top-viewed titles filtered for bot traffic, non-content pages and denylisted
// titles, enriched concurrently with summaries and view history, and merged
// across redirects.
package mostread

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wikifeeds-api/internal/config"
	"github.com/wikifeeds-api/internal/denylist"
	"github.com/wikifeeds-api/internal/metrics"
	"github.com/wikifeeds-api/internal/models"
	"github.com/wikifeeds-api/internal/resolve"
	"github.com/wikifeeds-api/internal/title"
	"github.com/wikifeeds-api/internal/upstream"
	"github.com/wikifeeds-api/internal/validation"
)

var (
	// ErrInvalidDate is returned when the requested date is malformed or out of range
	ErrInvalidDate = errors.New("invalid date")
	// ErrSiteExcluded is returned for sites that never get a most-read feed
	ErrSiteExcluded = errors.New("site is excluded from most-read")
	// ErrNotFound is returned when there is no usable top list for the date
	ErrNotFound = errors.New("no most-read data")
	// ErrInvalidThreshold is returned for a bot filter threshold outside [0, 1]
	ErrInvalidThreshold = errors.New("bot filter threshold must lie in [0, 1]")
)

// VaryAcceptLanguage is the Vary hint for sites with language variants
const VaryAcceptLanguage = "accept-language"

// historyDays is the length of the view history: the result date and the four days before it
const historyDays = 5

// PageviewsFetcher reads the pageview metrics service
type PageviewsFetcher interface {
	FetchTop(ctx context.Context, project, platform string, date time.Time) (*models.TopPageviews, error)
	FetchDailySeries(ctx context.Context, req models.SeriesRequest) ([]models.DatedPageviews, error)
}

// SummaryFetcher reads page summaries
type SummaryFetcher interface {
	FetchSummary(ctx context.Context, domain, title, acceptLanguage string) (*models.Summary, error)
}

// SiteInfoProvider supplies site metadata, usually from a cache
type SiteInfoProvider interface {
	Get(ctx context.Context, domain string) (*models.SiteInfo, error)
}

// DenylistProvider supplies the denylist in effect
type DenylistProvider interface {
	Current() denylist.DenyList
}

// Deps are the collaborators of an Aggregator
type Deps struct {
	Pageviews PageviewsFetcher
	Summaries SummaryFetcher
	SiteInfo  SiteInfoProvider
	// Denylist defaults to an empty list
	Denylist DenylistProvider
	// Validator defaults to validation.NewValidator()
	Validator *validation.Validator
}

// Aggregator builds most-read feeds
type Aggregator struct {
	deps     Deps
	cfg      config.MostReadConfig
	bot      *BotFilter
	resolver *resolve.Resolver
	excluded map[string]struct{}
	log      zerolog.Logger
}

// NewAggregator creates an Aggregator. It fails with ErrInvalidThreshold when
// the bot filter threshold is out of range.
func NewAggregator(deps Deps, cfg config.MostReadConfig, log zerolog.Logger) (*Aggregator, error) {
	if deps.Pageviews == nil || deps.Summaries == nil || deps.SiteInfo == nil {
		return nil, errors.New("mostread: pageviews, summaries and site info are required")
	}
	if deps.Denylist == nil {
		deps.Denylist = denylist.DenyList{}
	}
	if deps.Validator == nil {
		deps.Validator = validation.NewValidator()
	}
	if cfg.MaxTitles <= 0 {
		cfg.MaxTitles = 50
	}

	bot, err := NewBotFilter(cfg.BotThreshold)
	if err != nil {
		return nil, fmt.Errorf("%w: got %v", err, cfg.BotThreshold)
	}
	if !cfg.BotFilter {
		bot = nil
	}

	excluded := make(map[string]struct{}, len(cfg.ExcludedDomains))
	for _, d := range cfg.ExcludedDomains {
		excluded[strings.ToLower(d)] = struct{}{}
	}

	log = log.With().Str("service", "mostread").Logger()
	log.Info().
		Int("max_titles", cfg.MaxTitles).
		Bool("bot_filter", cfg.BotFilter).
		Float64("bot_threshold", cfg.BotThreshold).
		Int("max_concurrency", cfg.MaxConcurrency).
		Msg("Initializing most-read aggregator")

	return &Aggregator{
		deps:     deps,
		cfg:      cfg,
		bot:      bot,
		resolver: resolve.New(resolve.IgnoreFailures(log), cfg.MaxConcurrency),
		excluded: excluded,
		log:      log,
	}, nil
}

// Build produces the most-read feed for req. In aggregated mode every failure
// degrades to an empty result.
func (a *Aggregator) Build(ctx context.Context, req models.MostReadRequest) (*models.FeedResult, error) {
	log := a.log.With().
		Str("domain", req.Domain).
		Str("date", req.Year+"-"+req.Month+"-"+req.Day).
		Bool("aggregated", req.Aggregated).
		Logger()

	result, err := a.build(ctx, req, log)
	switch {
	case err == nil:
		if result.Empty() {
			metrics.FeedBuilds.WithLabelValues("empty").Inc()
		} else {
			metrics.FeedBuilds.WithLabelValues("ok").Inc()
		}
		return result, nil
	case req.Aggregated:
		log.Warn().Err(err).Msg("Most-read unavailable, serving empty result")
		metrics.FeedBuilds.WithLabelValues("empty").Inc()
		return &models.FeedResult{}, nil
	default:
		metrics.FeedBuilds.WithLabelValues("error").Inc()
		return nil, err
	}
}

func (a *Aggregator) build(ctx context.Context, req models.MostReadRequest, log zerolog.Logger) (*models.FeedResult, error) {
	if _, excluded := a.excluded[strings.ToLower(req.Domain)]; excluded {
		return nil, fmt.Errorf("%w: %s", ErrSiteExcluded, req.Domain)
	}

	date, err := a.deps.Validator.ValidateDate(req.Year, req.Month, req.Day)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDate, err)
	}
	meta := models.FeedMeta{Revision: validation.Revision(date)}

	// best-effort requests read the previous day, which is complete
	queryDate := date
	if req.Aggregated {
		queryDate = date.AddDate(0, 0, -1)
	}

	src, err := a.fetchSources(ctx, req.Domain, queryDate)
	if err != nil {
		return nil, err
	}
	if src.site.HasVariants() {
		meta.Vary = VaryAcceptLanguage
	}

	resultDate, err := src.top.ResultDate()
	if err != nil {
		return nil, fmt.Errorf("failed to read top pageviews date: %w", err)
	}

	locale := denylist.LocaleFromDomain(req.Domain)
	deny := a.deps.Denylist.Current()

	candidates := a.candidates(src, locale, deny, log)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no eligible articles for %s on %s",
			ErrNotFound, req.Domain, models.FormatResultDate(resultDate))
	}

	articles, err := a.enrich(ctx, req, resultDate, candidates)
	if err != nil {
		return nil, err
	}
	articles = a.filterEnriched(articles, src.site, locale, deny)

	deduped := DedupArticles(articles)
	dropped(metrics.ReasonDuplicate, len(articles)-len(deduped))

	log.Debug().
		Int("top", len(src.top.Articles)).
		Int("candidates", len(candidates)).
		Int("articles", len(deduped)).
		Msg("Most-read feed built")

	if len(deduped) == 0 && req.Aggregated {
		return &models.FeedResult{Meta: meta}, nil
	}
	return &models.FeedResult{
		Payload: &models.MostReadFeed{
			Date:     models.FormatResultDate(resultDate),
			Articles: deduped,
		},
		Meta: meta,
	}, nil
}

type sources struct {
	top     *models.TopPageviews
	desktop *models.TopPageviews
	site    *models.SiteInfo
}

// fetchSources loads the combined top list, the desktop top list when the bot
// filter is on, and the site metadata in parallel.
func (a *Aggregator) fetchSources(ctx context.Context, domain string, date time.Time) (*sources, error) {
	project := upstream.Project(domain)
	var src sources

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		top, err := a.deps.Pageviews.FetchTop(gctx, project, models.PlatformAll, date)
		if err != nil {
			return topError(models.PlatformAll, err)
		}
		src.top = top
		return nil
	})
	if a.bot != nil {
		g.Go(func() error {
			desktop, err := a.deps.Pageviews.FetchTop(gctx, project, models.PlatformDesktopWeb, date)
			if err != nil {
				return topError(models.PlatformDesktopWeb, err)
			}
			src.desktop = desktop
			return nil
		})
	}
	g.Go(func() error {
		site, err := a.deps.SiteInfo.Get(gctx, domain)
		if err != nil {
			return fmt.Errorf("failed to load site info: %w", err)
		}
		src.site = site
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &src, nil
}

func topError(platform string, err error) error {
	if errors.Is(err, upstream.ErrNoData) {
		return fmt.Errorf("%w: %s top list: %w", ErrNotFound, platform, err)
	}
	return fmt.Errorf("failed to fetch %s top pageviews: %w", platform, err)
}

type candidate struct {
	article *models.ResolvedArticle
	title   *title.Title
}

// candidates turns the top list into filtered candidates, in rank order
func (a *Aggregator) candidates(src *sources, locale string, deny denylist.DenyList, log zerolog.Logger) []candidate {
	entries := src.top.Articles
	if len(entries) > a.cfg.MaxTitles {
		entries = entries[:a.cfg.MaxTitles]
	}

	if a.bot != nil {
		// The desktop list is longer so titles near the cut-off still find their counterpart.
		desktop := src.desktop.Articles
		if len(desktop) > 2*a.cfg.MaxTitles {
			desktop = desktop[:2*a.cfg.MaxTitles]
		}
		kept := a.bot.Filter(entries, desktop)
		dropped(metrics.ReasonBot, len(entries)-len(kept))
		entries = kept
	}

	out := make([]candidate, 0, len(entries))
	for _, e := range entries {
		t, err := title.Parse(e.Title, src.site)
		if err != nil {
			log.Warn().Err(err).Str("title", e.Title).Msg("Dropping unparseable title")
			dropped(metrics.ReasonInvalidTitle, 1)
			continue
		}

		art := &models.ResolvedArticle{
			RawTitle:    e.Title,
			NamespaceID: t.Namespace,
			Views:       e.Views,
			Rank:        e.Rank,
		}
		canonical := t.PrefixedDBKey()

		if !IsInMainNamespace(art) {
			dropped(metrics.ReasonNamespace, 1)
			continue
		}
		if !IsNotMainPage(canonical, src.site.MainPage) {
			dropped(metrics.ReasonMainPage, 1)
			continue
		}
		if !deny.IsAllowed(locale, canonical) {
			dropped(metrics.ReasonDenylist, 1)
			continue
		}
		out = append(out, candidate{article: art, title: t})
	}
	return out
}

// enrich fetches the summary and view history of every candidate concurrently.
// Candidates missing either are dropped.
func (a *Aggregator) enrich(ctx context.Context, req models.MostReadRequest, resultDate time.Time, candidates []candidate) ([]*models.ResolvedArticle, error) {
	project := upstream.Project(req.Domain)
	start := resultDate.AddDate(0, 0, -(historyDays - 1))

	tree := make(resolve.List, 0, len(candidates))
	for _, c := range candidates {
		c := c
		tree = append(tree, resolve.Map{
			"article": resolve.Value{V: c.article},
			"summary": resolve.Pending(func(ctx context.Context) (any, error) {
				return a.deps.Summaries.FetchSummary(ctx, req.Domain, c.title.PrefixedDBKey(), req.AcceptLanguage)
			}),
			"view_history": resolve.Pending(func(ctx context.Context) (any, error) {
				return a.deps.Pageviews.FetchDailySeries(ctx, models.SeriesRequest{
					Project:     project,
					Platform:    models.PlatformAll,
					Agent:       models.AgentUser,
					Title:       c.article.RawTitle,
					Granularity: models.GranularityDaily,
					Start:       start,
					End:         resultDate,
				})
			}),
		})
	}

	resolved, err := a.resolver.Resolve(ctx, tree)
	if err != nil {
		return nil, fmt.Errorf("failed to enrich articles: %w", err)
	}

	items, _ := resolved.([]any)
	out := make([]*models.ResolvedArticle, 0, len(items))
	for _, item := range items {
		fields, _ := item.(map[string]any)
		art, _ := fields["article"].(*models.ResolvedArticle)
		summary, _ := fields["summary"].(*models.Summary)
		history, hasHistory := fields["view_history"].([]models.DatedPageviews)
		if art == nil || summary == nil || !hasHistory {
			dropped(metrics.ReasonEnrichment, 1)
			continue
		}
		art.Summary = summary
		art.ViewHistory = history
		out = append(out, art)
	}
	return out, nil
}

// filterEnriched re-checks titles after redirects have been resolved by the summary service
func (a *Aggregator) filterEnriched(articles []*models.ResolvedArticle, site *models.SiteInfo, locale string, deny denylist.DenyList) []*models.ResolvedArticle {
	out := articles[:0]
	for _, art := range articles {
		if ns := art.Summary.Namespace; ns != nil && ns.ID != models.MainNamespace {
			dropped(metrics.ReasonNamespace, 1)
			continue
		}
		canonical := art.CanonicalTitle()
		if !IsNotMainPage(canonical, site.MainPage) {
			dropped(metrics.ReasonMainPage, 1)
			continue
		}
		if !deny.IsAllowed(locale, canonical) {
			dropped(metrics.ReasonDenylist, 1)
			continue
		}
		out = append(out, art)
	}
	return out
}

func dropped(reason string, n int) {
	if n > 0 {
		metrics.DroppedCandidates.WithLabelValues(reason).Add(float64(n))
	}
}
