package upstream

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/wikifeeds-api/internal/models"
)

const siteInfoService = "mwapi"

// SiteInfoClient loads site metadata from the MediaWiki action API
type SiteInfoClient struct {
	client      *Client
	urlTemplate string
}

// NewSiteInfoClient creates a SiteInfoClient. urlTemplate is the api.php URL
// with a {domain} placeholder.
func NewSiteInfoClient(client *Client, urlTemplate string) *SiteInfoClient {
	return &SiteInfoClient{client: client, urlTemplate: urlTemplate}
}

type siteInfoResponse struct {
	Query struct {
		General struct {
			MainPage string `json:"mainpage"`
			Lang     string `json:"lang"`
			Case     string `json:"case"`
		} `json:"general"`
		Namespaces map[string]struct {
			ID        int    `json:"id"`
			Case      string `json:"case"`
			Name      string `json:"name"`
			Canonical string `json:"canonical"`
		} `json:"namespaces"`
		NamespaceAliases []struct {
			ID    int    `json:"id"`
			Alias string `json:"alias"`
		} `json:"namespacealiases"`
		LanguageVariants map[string]map[string]any `json:"languagevariants"`
	} `json:"query"`
}

// FetchSiteInfo returns the metadata of domain
func (c *SiteInfoClient) FetchSiteInfo(ctx context.Context, domain string) (*models.SiteInfo, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("meta", "siteinfo")
	q.Set("siprop", "general|languagevariants|namespaces|namespacealiases")
	q.Set("format", "json")
	q.Set("formatversion", "2")
	u := expandDomain(c.urlTemplate, domain) + "?" + q.Encode()

	var rsp siteInfoResponse
	if err := c.client.getJSON(ctx, siteInfoService, u, nil, &rsp); err != nil {
		return nil, err
	}
	if rsp.Query.General.MainPage == "" {
		return nil, fmt.Errorf("%s: siteinfo for %s has no main page", siteInfoService, domain)
	}

	si := &models.SiteInfo{
		Domain:   domain,
		MainPage: rsp.Query.General.MainPage,
		Lang:     rsp.Query.General.Lang,
		Case:     rsp.Query.General.Case,
		Aliases:  make(map[string]int, len(rsp.Query.NamespaceAliases)),
	}
	for key, ns := range rsp.Query.Namespaces {
		id := ns.ID
		if parsed, err := strconv.Atoi(key); err == nil && id == 0 {
			id = parsed
		}
		si.Namespaces = append(si.Namespaces, models.NamespaceInfo{
			ID:        id,
			Name:      ns.Name,
			Canonical: ns.Canonical,
			Case:      ns.Case,
		})
	}
	sort.Slice(si.Namespaces, func(i, j int) bool { return si.Namespaces[i].ID < si.Namespaces[j].ID })
	for _, a := range rsp.Query.NamespaceAliases {
		si.Aliases[a.Alias] = a.ID
	}
	for variant := range rsp.Query.LanguageVariants[si.Lang] {
		si.Variants = append(si.Variants, variant)
	}
	return si, nil
}
