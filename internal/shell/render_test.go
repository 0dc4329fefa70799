package shell

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/artifacts-web/internal/carousel"
	"finitefield.org/artifacts-web/internal/promo"
	"finitefield.org/artifacts-web/internal/testutil"
	"finitefield.org/artifacts-web/internal/viewport"
)

func samplePage(t *testing.T, st carousel.State, n int) PageView {
	t.Helper()
	cat := testCatalog(t, n)
	start, end := st.VisibleRange()
	block, err := promo.Embedded("ru").Get("en")
	require.NoError(t, err)
	return BuildPage(PageInput{
		Lang:      "en",
		Path:      "/",
		MountID:   "01TESTMOUNT",
		State:     st,
		Visible:   cat.Slice(start, end),
		Promo:     &block,
		Languages: []string{"ru", "en"},
		Assets:    DefaultAssets(),
	}, testBundle(t))
}

func TestRendererPageWide(t *testing.T) {
	r, err := NewRenderer(RendererOptions{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, samplePage(t, carousel.State{Mode: viewport.Wide, Page: 1, ItemCount: 10}, 10)))

	doc := testutil.ParseHTML(t, buf.Bytes())
	require.Equal(t, 1, doc.Find("#root").Length())
	require.Equal(t, "01TESTMOUNT", doc.Find("#root").AttrOr("data-mount", ""))
	require.Equal(t, "en", doc.Find("html").AttrOr("lang", ""))
	require.Equal(t, 4, doc.Find("#catalog-strip .catalog-card").Length())
	require.Equal(t, "wide", doc.Find("#catalog").AttrOr("data-mode", ""))

	_, prevDisabled := doc.Find(".catalog-arrow--left").Attr("disabled")
	_, nextDisabled := doc.Find(".catalog-arrow--right").Attr("disabled")
	require.True(t, prevDisabled)
	require.False(t, nextDisabled)
	require.Zero(t, doc.Find(".catalog__dots").Length())

	require.Equal(t, "01TESTMOUNT", doc.Find(`.catalog__nav input[name="mount"]`).First().AttrOr("value", ""))
	require.Contains(t, doc.Find("[data-init]").AttrOr("data-init", ""), "/shell/stream?mount=01TESTMOUNT")

	require.Equal(t, 4, doc.Find(".site-nav a").Length())
	require.Equal(t, 2, doc.Find(`.support__form input[required]`).Length())
	require.Equal(t, 4, doc.Find(".site-footer__social a").Length())
	require.Equal(t, "f&b ® 2020", strings.TrimSpace(doc.Find(".site-footer__copyright").Text()))
	require.Equal(t, "/gallery/kurische-nehrung-24", doc.Find(".promo__more").AttrOr("href", ""))
}

func TestRendererCatalogCompact(t *testing.T) {
	r, err := NewRenderer(RendererOptions{})
	require.NoError(t, err)

	page := samplePage(t, carousel.State{Mode: viewport.Compact, Page: 1, CardIndex: 3, ItemCount: 6}, 6)
	html, err := r.Catalog(page.Catalog)
	require.NoError(t, err)

	doc := testutil.ParseHTML(t, []byte(html))
	require.Equal(t, "compact", doc.Find("#catalog").AttrOr("data-mode", ""))
	require.Equal(t, 6, doc.Find(".catalog-card").Length())
	require.Equal(t, 6, doc.Find(".catalog-dot").Length())
	require.Equal(t, "4", strings.TrimSpace(doc.Find(".catalog-dot.is-active").Text()))
	require.Equal(t, "3", doc.Find(".catalog-card.is-active").AttrOr("data-index", ""))
	require.Equal(t, "/carousel/dots/5", doc.Find(".catalog__dots form").Last().AttrOr("action", ""))
}

func TestRendererEmptyCatalog(t *testing.T) {
	r, err := NewRenderer(RendererOptions{})
	require.NoError(t, err)

	page := samplePage(t, carousel.State{Mode: viewport.Compact, Page: 1}, 0)
	html, err := r.Catalog(page.Catalog)
	require.NoError(t, err)

	doc := testutil.ParseHTML(t, []byte(html))
	require.Equal(t, 1, doc.Find(".catalog__empty").Length())
	require.Zero(t, doc.Find(".catalog-card").Length())
	require.Zero(t, doc.Find(".catalog-dot").Length())
	require.Equal(t, 2, doc.Find(".catalog-arrow[disabled]").Length())
}

func TestRendererDevModeReparses(t *testing.T) {
	dir := t.TempDir()
	entries, err := templatesFS.ReadDir("templates")
	require.NoError(t, err)
	for _, e := range entries {
		b, err := templatesFS.ReadFile("templates/" + e.Name())
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, e.Name()), b, 0o600))
	}

	r, err := NewRenderer(RendererOptions{Dev: true, Dir: dir})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.html"), []byte(`{{define "catalog"}}<p id="catalog">edited</p>{{end}}`), 0o600))
	html, err := r.Catalog(CatalogView{})
	require.NoError(t, err)
	require.Contains(t, html, "edited")

	_, err = NewRenderer(RendererOptions{Dev: true})
	require.Error(t, err)
}

func TestVerifyMount(t *testing.T) {
	r, err := NewRenderer(RendererOptions{})
	require.NoError(t, err)
	require.NoError(t, r.VerifyMount(samplePage(t, carousel.State{Mode: viewport.Wide, Page: 1}, 0)))
}

func TestAssetsHandler(t *testing.T) {
	h := http.StripPrefix("/assets/", AssetsHandler(AssetsFS()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/shell.js", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	require.Contains(t, rec.Body.String(), "sendBeacon")

	req := httptest.NewRequest(http.MethodGet, "/assets/shell.js", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotModified, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/missing.css", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
