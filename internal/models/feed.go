package models

// MostReadFeed is the most-read payload served to clients
type MostReadFeed struct {
	Date     string             `json:"date"`
	Articles []*ResolvedArticle `json:"articles"`
}

// FeedMeta carries cache-relevant metadata for the HTTP layer
type FeedMeta struct {
	// Revision is derived from the request date (YYYYMMDD) and feeds the ETag
	Revision string
	// Vary is set to a header name when responses differ by that header
	Vary string
}

// FeedResult is the outcome of building a feed. A nil Payload means an empty,
// successfully-shaped result (best-effort mode).
type FeedResult struct {
	Payload *MostReadFeed
	Meta    FeedMeta
}

// Empty reports whether the result carries no payload
func (r *FeedResult) Empty() bool {
	return r == nil || r.Payload == nil
}

// MostReadRequest is a request for the most-read feed of a site and date
type MostReadRequest struct {
	Domain         string
	Year           string
	Month          string
	Day            string
	Aggregated     bool
	AcceptLanguage string
}

// FeedRequest is a request for a date-keyed feed of a site
type FeedRequest struct {
	Domain         string
	Year           string
	Month          string
	Day            string
	AcceptLanguage string
}

// AggregatedFeed is the body of the aggregated featured feed. Parts without
// data are omitted.
type AggregatedFeed struct {
	MostRead *MostReadFeed `json:"mostread,omitempty"`
}

// AggregatedResult is the outcome of building the aggregated feed
type AggregatedResult struct {
	Payload *AggregatedFeed
	Meta    FeedMeta
}
