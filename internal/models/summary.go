package models

// Summary is the page summary returned by the REST content service.
// Only the fields feed clients rely on are modelled.
type Summary struct {
	Type              string       `json:"type,omitempty"`
	Title             string       `json:"title"`
	DisplayTitle      string       `json:"displaytitle,omitempty"`
	NormalizedTitle   string       `json:"normalizedtitle,omitempty"`
	Namespace         *Namespace   `json:"namespace,omitempty"`
	WikibaseItem      string       `json:"wikibase_item,omitempty"`
	Titles            *Titles      `json:"titles,omitempty"`
	PageID            int          `json:"pageid,omitempty"`
	Thumbnail         *Image       `json:"thumbnail,omitempty"`
	OriginalImage     *Image       `json:"originalimage,omitempty"`
	Lang              string       `json:"lang,omitempty"`
	Dir               string       `json:"dir,omitempty"`
	Revision          string       `json:"revision,omitempty"`
	Tid               string       `json:"tid,omitempty"`
	Timestamp         string       `json:"timestamp,omitempty"`
	Description       string       `json:"description,omitempty"`
	DescriptionSource string       `json:"description_source,omitempty"`
	ContentURLs       *ContentURLs `json:"content_urls,omitempty"`
	Extract           string       `json:"extract,omitempty"`
	ExtractHTML       string       `json:"extract_html,omitempty"`
}

// Namespace identifies the namespace of a summarized page
type Namespace struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Titles carries the title variants of a summarized page
type Titles struct {
	Canonical  string `json:"canonical"`
	Normalized string `json:"normalized"`
	Display    string `json:"display"`
}

// Image is a thumbnail or original image reference
type Image struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ContentURLs groups desktop and mobile page links
type ContentURLs struct {
	Desktop *PageURLs `json:"desktop,omitempty"`
	Mobile  *PageURLs `json:"mobile,omitempty"`
}

// PageURLs are the links for a single platform
type PageURLs struct {
	Page      string `json:"page"`
	Revisions string `json:"revisions"`
	Edit      string `json:"edit"`
	Talk      string `json:"talk"`
}
