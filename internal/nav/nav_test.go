package nav

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildMarksActivePrefix(t *testing.T) {
	items := Build("/gallery/ferns", nil)
	require.Len(t, items, len(Main))
	for _, it := range items {
		require.Equal(t, it.Href == "/gallery", it.Active, it.Href)
		require.Empty(t, it.Label)
	}
}

func TestBuildHomeHasNoActiveItem(t *testing.T) {
	for _, it := range Build("", strings.ToUpper) {
		require.False(t, it.Active)
		require.Equal(t, strings.ToUpper(it.LabelKey), it.Label)
	}
}

func TestBuildDoesNotMatchSiblingPrefix(t *testing.T) {
	for _, it := range Build("/catalogue", nil) {
		require.False(t, it.Active, it.Href)
	}
}
