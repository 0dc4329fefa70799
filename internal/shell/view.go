// Package shell renders the landing page around the catalog controller and keeps
// track of the mounted pages that own a controller.
package shell

import (
	"strconv"

	"finitefield.org/artifacts-web/internal/carousel"
	"finitefield.org/artifacts-web/internal/catalog"
	"finitefield.org/artifacts-web/internal/nav"
	"finitefield.org/artifacts-web/internal/promo"
	"finitefield.org/artifacts-web/internal/viewport"
)

// Translator looks up page copy. *i18n.Bundle satisfies it.
type Translator interface {
	T(lang, key string) string
	Tf(lang, key string, args ...any) string
}

// Action paths posted by the catalog controls.
const (
	ActionPrev    = "/carousel/prev"
	ActionNext    = "/carousel/next"
	ActionDotBase = "/carousel/dots/"
	StreamPath    = "/shell/stream"
	ViewportPath  = "/shell/viewport"
	UnmountPath   = "/shell/unmount"
)

// Card is one rendered catalog item.
type Card struct {
	Index  int
	ID     string
	Name   string
	Latin  string
	Image  string
	Origin string
	Year   int
	Active bool
}

// Arrow is one of the two navigation buttons.
type Arrow struct {
	Side     string
	Action   string
	Label    string
	Icon     string
	Disabled bool
}

// Dot is a compact-mode pagination dot.
type Dot struct {
	Index  int
	Number int
	Action string
	Label  string
	Active bool
}

// CatalogView is the view model of the catalog section.
type CatalogView struct {
	MountID   string
	Title     string
	Mode      string
	Compact   bool
	Class     string
	Cards     []Card
	Prev      Arrow
	Next      Arrow
	Dots      []Dot
	Caption   string
	Empty     bool
	EmptyText string

	Page       int
	TotalPages int
	CardIndex  int
	ItemCount  int
}

// BuildCatalogView derives the catalog section from a controller state and the
// items it reports as visible. It has no side effects.
func BuildCatalogView(st carousel.State, visible []catalog.Item, lang string, tr Translator) CatalogView {
	compact := st.Mode == viewport.Compact
	start, _ := st.VisibleRange()

	v := CatalogView{
		Title:      tr.T(lang, "catalog.title"),
		Mode:       st.Mode.String(),
		Compact:    compact,
		Class:      "catalog-grid catalog-grid--" + st.Mode.String(),
		Page:       st.Page,
		TotalPages: st.TotalPages(),
		CardIndex:  st.CardIndex,
		ItemCount:  st.ItemCount,
		Empty:      st.ItemCount == 0,
		Prev: Arrow{
			Side:     carousel.Left.String(),
			Action:   ActionPrev,
			Label:    tr.T(lang, "catalog.prev"),
			Icon:     "←",
			Disabled: st.NavDisabled(carousel.Left),
		},
		Next: Arrow{
			Side:     carousel.Right.String(),
			Action:   ActionNext,
			Label:    tr.T(lang, "catalog.next"),
			Icon:     "→",
			Disabled: st.NavDisabled(carousel.Right),
		},
	}

	v.Cards = make([]Card, 0, len(visible))
	for i, it := range visible {
		idx := start + i
		v.Cards = append(v.Cards, Card{
			Index:  idx,
			ID:     it.ID,
			Name:   it.Name,
			Latin:  it.Latin,
			Image:  it.Image,
			Origin: it.Origin,
			Year:   it.Year,
			Active: compact && idx == st.CardIndex,
		})
	}

	if n := st.DotCount(); n > 0 {
		active := st.DotPageNumber()
		v.Dots = make([]Dot, n)
		for i := range v.Dots {
			v.Dots[i] = Dot{
				Index:  i,
				Number: i + 1,
				Action: ActionDotBase + strconv.Itoa(i),
				Label:  tr.Tf(lang, "catalog.dot", i+1),
				Active: i+1 == active,
			}
		}
	}

	switch {
	case v.Empty:
		v.EmptyText = tr.T(lang, "catalog.empty")
	case compact:
		v.Caption = tr.Tf(lang, "catalog.card", st.CardIndex+1, st.ItemCount)
	default:
		v.Caption = tr.Tf(lang, "catalog.page", st.Page, v.TotalPages)
	}
	return v
}

// ControlView is a rendered header control.
type ControlView struct {
	Href  string
	Label string
	Icon  string
}

// LanguageLink switches the page language.
type LanguageLink struct {
	Lang   string
	Href   string
	Active bool
}

type HeroView struct {
	Title string
	Body  string
	CTA   string
	Href  string
}

// SupportView is the support form. Inputs carry native required validation only.
type SupportView struct {
	Title       string
	Body        string
	NameLabel   string
	EmailLabel  string
	SubmitLabel string
}

// AssetsView lists the script and style URLs included by the layout.
type AssetsView struct {
	CSS      string
	JS       string
	Datastar string
}

// PageView is the view model of the whole landing page.
type PageView struct {
	Lang        string
	Title       string
	Description string
	Brand       string
	MountID     string
	StreamURL   string
	ViewportURL string
	UnmountURL  string

	Nav       []nav.RenderedItem
	Controls  []ControlView
	Languages []LanguageLink
	Hero      HeroView
	Catalog   CatalogView
	Promo     *promo.Block
	Support   SupportView
	Social    []nav.SocialLink
	Copyright string
	Assets    AssetsView
}

// PageInput collects what BuildPage needs.
type PageInput struct {
	Lang      string
	Path      string
	MountID   string
	State     carousel.State
	Visible   []catalog.Item
	Promo     *promo.Block
	Languages []string
	Assets    AssetsView
}

// BuildPage assembles the landing page view model.
func BuildPage(in PageInput, tr Translator) PageView {
	lang := in.Lang
	translate := func(key string) string { return tr.T(lang, key) }

	controls := make([]ControlView, 0, len(nav.Controls))
	for _, c := range nav.Controls {
		controls = append(controls, ControlView{Href: c.Href, Label: translate(c.LabelKey), Icon: c.Icon})
	}

	langs := make([]LanguageLink, 0, len(in.Languages))
	for _, l := range in.Languages {
		langs = append(langs, LanguageLink{Lang: l, Href: "/?hl=" + l, Active: l == lang})
	}

	catalogView := BuildCatalogView(in.State, in.Visible, lang, tr)
	catalogView.MountID = in.MountID

	return PageView{
		Lang:        lang,
		Title:       translate("brand.title"),
		Description: translate("meta.description"),
		Brand:       translate("brand.name"),
		MountID:     in.MountID,
		StreamURL:   StreamPath,
		ViewportURL: ViewportPath,
		UnmountURL:  UnmountPath,
		Nav:         nav.Build(in.Path, translate),
		Controls:    controls,
		Languages:   langs,
		Hero: HeroView{
			Title: translate("hero.title"),
			Body:  translate("hero.body"),
			CTA:   translate("hero.cta"),
			Href:  "#catalog",
		},
		Catalog: catalogView,
		Promo:   in.Promo,
		Support: SupportView{
			Title:       translate("support.title"),
			Body:        translate("support.body"),
			NameLabel:   translate("support.name"),
			EmailLabel:  translate("support.email"),
			SubmitLabel: translate("support.submit"),
		},
		Social:    nav.Social,
		Copyright: translate("footer.copyright"),
		Assets:    in.Assets,
	}
}
