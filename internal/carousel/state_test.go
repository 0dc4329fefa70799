package carousel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/artifacts-web/internal/viewport"
)

func TestStateDerivedValues(t *testing.T) {
	cases := []struct {
		name       string
		state      State
		perPage    int
		totalPages int
		start, end int
	}{
		{"wide first page", State{Mode: viewport.Wide, Page: 1, ItemCount: 10}, 4, 3, 0, 4},
		{"wide second page", State{Mode: viewport.Wide, Page: 2, ItemCount: 10}, 4, 3, 4, 8},
		{"wide last short page", State{Mode: viewport.Wide, Page: 3, ItemCount: 10}, 4, 3, 8, 10},
		{"wide exact fit", State{Mode: viewport.Wide, Page: 2, ItemCount: 8}, 4, 2, 4, 8},
		{"wide empty", State{Mode: viewport.Wide, Page: 1}, 4, 1, 0, 0},
		{"compact", State{Mode: viewport.Compact, Page: 1, CardIndex: 3, ItemCount: 10}, 1, 10, 0, 10},
		{"compact empty", State{Mode: viewport.Compact, Page: 1}, 1, 1, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.perPage, tc.state.ItemsPerPage())
			require.Equal(t, tc.totalPages, tc.state.TotalPages())
			start, end := tc.state.VisibleRange()
			require.Equal(t, tc.start, start)
			require.Equal(t, tc.end, end)
		})
	}
}

func TestSideDirection(t *testing.T) {
	require.Equal(t, Prev, Left.Direction())
	require.Equal(t, Next, Right.Direction())
	require.Equal(t, "left", Left.String())
	require.Equal(t, "next", Next.String())
}

func TestProbeRejectsInvalidWidths(t *testing.T) {
	p := &Probe{}
	_, ok := p.CardWidth()
	require.False(t, ok)

	p.Report(312.5)
	w, ok := p.CardWidth()
	require.True(t, ok)
	require.Equal(t, 312.5, w)

	p.Report(-4)
	_, ok = p.CardWidth()
	require.False(t, ok)
}
