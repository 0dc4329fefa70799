package shell

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/artifacts-web/internal/carousel"
	"finitefield.org/artifacts-web/internal/catalog"
	"finitefield.org/artifacts-web/internal/i18n"
	"finitefield.org/artifacts-web/internal/viewport"
)

func testBundle(t *testing.T) *i18n.Bundle {
	t.Helper()
	b, err := i18n.Embedded()
	require.NoError(t, err)
	return b
}

func testCatalog(t *testing.T, n int) *catalog.Catalog {
	t.Helper()
	items := make([]catalog.Item, n)
	for i := range items {
		items[i] = catalog.Item{ID: fmt.Sprintf("item-%d", i), Name: fmt.Sprintf("Item %d", i)}
	}
	cat, err := catalog.New(items)
	require.NoError(t, err)
	return cat
}

func TestBuildCatalogViewWide(t *testing.T) {
	cat := testCatalog(t, 10)
	st := carousel.State{Mode: viewport.Wide, Page: 2, ItemCount: 10}
	start, end := st.VisibleRange()

	v := BuildCatalogView(st, cat.Slice(start, end), "en", testBundle(t))

	require.Equal(t, "wide", v.Mode)
	require.False(t, v.Compact)
	require.Len(t, v.Cards, 4)
	require.Equal(t, 4, v.Cards[0].Index)
	require.Equal(t, "item-7", v.Cards[3].ID)
	require.False(t, v.Prev.Disabled)
	require.False(t, v.Next.Disabled)
	require.Empty(t, v.Dots)
	require.Equal(t, "Page 2 of 3", v.Caption)
	require.Contains(t, v.Class, "catalog-grid--wide")
}

func TestBuildCatalogViewCompact(t *testing.T) {
	cat := testCatalog(t, 3)
	st := carousel.State{Mode: viewport.Compact, Page: 1, CardIndex: 2, ItemCount: 3}

	v := BuildCatalogView(st, cat.Items(), "en", testBundle(t))

	require.True(t, v.Compact)
	require.Len(t, v.Cards, 3)
	require.True(t, v.Cards[2].Active)
	require.False(t, v.Cards[0].Active)
	require.False(t, v.Prev.Disabled)
	require.True(t, v.Next.Disabled)
	require.Len(t, v.Dots, 3)
	require.True(t, v.Dots[2].Active)
	require.Equal(t, "/carousel/dots/1", v.Dots[1].Action)
	require.Equal(t, "Card 3 of 3", v.Caption)
}

func TestBuildCatalogViewEmpty(t *testing.T) {
	for _, mode := range []viewport.Mode{viewport.Wide, viewport.Compact} {
		st := carousel.State{Mode: mode, Page: 1}
		v := BuildCatalogView(st, nil, "ru", testBundle(t))

		require.True(t, v.Empty, mode.String())
		require.Empty(t, v.Cards)
		require.Empty(t, v.Dots)
		require.True(t, v.Prev.Disabled)
		require.True(t, v.Next.Disabled)
		require.Equal(t, "Коллекция пока пуста", v.EmptyText)
		require.Empty(t, v.Caption)
	}
}

func TestBuildCatalogViewIsPure(t *testing.T) {
	cat := testCatalog(t, 5)
	st := carousel.State{Mode: viewport.Compact, CardIndex: 1, Page: 1, ItemCount: 5}
	items := cat.Items()

	a := BuildCatalogView(st, items, "en", testBundle(t))
	b := BuildCatalogView(st, items, "en", testBundle(t))
	require.Equal(t, a, b)
	require.Equal(t, cat.Items(), items)
}

func TestBuildPage(t *testing.T) {
	cat := testCatalog(t, 2)
	v := BuildPage(PageInput{
		Lang:      "en",
		Path:      "/catalog",
		MountID:   "m1",
		State:     carousel.State{Mode: viewport.Wide, Page: 1, ItemCount: 2},
		Visible:   cat.Items(),
		Languages: []string{"en", "ru"},
		Assets:    DefaultAssets(),
	}, testBundle(t))

	require.Equal(t, "en", v.Lang)
	require.Equal(t, "m1", v.Catalog.MountID)
	require.Len(t, v.Nav, 4)
	require.True(t, v.Nav[0].Active)
	require.Len(t, v.Controls, 2)
	require.Len(t, v.Social, 4)
	require.Equal(t, "f&b ® 2020", v.Copyright)
	require.True(t, v.Languages[0].Active)
	require.Equal(t, "/?hl=ru", v.Languages[1].Href)
}
