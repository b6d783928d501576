package models

// MainNamespace is the content namespace id
const MainNamespace = 0

// SiteInfo is the per-site metadata the most-read pipeline needs
type SiteInfo struct {
	Domain   string
	MainPage string
	Lang     string
	// Case is the site's title capitalization rule, "first-letter" or "case-sensitive"
	Case       string
	Variants   []string
	Namespaces []NamespaceInfo
	// Aliases maps additional namespace names to namespace ids
	Aliases map[string]int
}

// NamespaceInfo describes one namespace of a site
type NamespaceInfo struct {
	ID        int
	Name      string
	Canonical string
	Case      string
}

// HasVariants reports whether the site content varies by language variant
func (s *SiteInfo) HasVariants() bool {
	return len(s.Variants) > 0
}
