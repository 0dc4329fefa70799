package nav

import "strings"

// Item represents a header navigation link.
type Item struct {
	Path     string // e.g. "/catalog"
	LabelKey string // i18n key, e.g. "nav.catalog"
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href     string
	LabelKey string
	Label    string
	Active   bool
}

// Control is an icon-only header link.
type Control struct {
	Href     string
	LabelKey string
	Icon     string
}

// SocialLink is a footer link to an external profile.
type SocialLink struct {
	Name string
	Href string
}

// Main is the header navigation.
var Main = []Item{
	{Path: "/catalog", LabelKey: "nav.catalog"},
	{Path: "/gallery", LabelKey: "nav.gallery"},
	{Path: "/about", LabelKey: "nav.about"},
	{Path: "/contacts", LabelKey: "nav.contacts"},
}

// Controls are shown to the right of the header navigation.
var Controls = []Control{
	{Href: "/search", LabelKey: "nav.search", Icon: "🔍"},
	{Href: "/exit", LabelKey: "nav.exit", Icon: "↗"},
}

// Social is the footer link row.
var Social = []SocialLink{
	{Name: "youtube", Href: "https://youtube.com"},
	{Name: "instagram", Href: "https://instagram.com"},
	{Name: "facebook", Href: "https://facebook.com"},
	{Name: "twitter", Href: "https://twitter.com"},
}

// Build renders navigation items with active state given the current path.
// translate may be nil, in which case labels stay empty and templates fall back to the key.
func Build(currentPath string, translate func(key string) string) []RenderedItem {
	if currentPath == "" {
		currentPath = "/"
	}
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		ri := RenderedItem{
			Href:     it.Path,
			LabelKey: it.LabelKey,
			Active:   isActive(it.Path, currentPath),
		}
		if translate != nil {
			ri.Label = translate(it.LabelKey)
		}
		items = append(items, ri)
	}
	return items
}

func isActive(itemPath, currentPath string) bool {
	if itemPath == "/" {
		return currentPath == "/"
	}
	// match exact or prefix boundary: "/catalog" or "/catalog/..."
	return currentPath == itemPath || strings.HasPrefix(currentPath, itemPath+"/")
}
