package carousel

import "finitefield.org/artifacts-web/internal/viewport"

const (
	// WideItemsPerPage is the grid page size in wide mode.
	WideItemsPerPage = 4
	// CompactItemsPerPage is the logical page size of the compact carousel (one card per dot).
	CompactItemsPerPage = 1
	// CardGap is the spacing added to a card width for one carousel step.
	CardGap = 20
)

// Direction is the paging direction of a navigation request.
type Direction int

const (
	Prev Direction = iota
	Next
)

func (d Direction) String() string {
	if d == Next {
		return "next"
	}
	return "prev"
}

func (d Direction) step() int {
	if d == Next {
		return 1
	}
	return -1
}

// Side identifies one of the two arrow controls.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// Direction maps an arrow to the direction it moves in.
func (s Side) Direction() Direction {
	if s == Right {
		return Next
	}
	return Prev
}

// State is a point-in-time copy of the controller state. Every derived value is
// computed from the three counters and the item count on read.
type State struct {
	Mode      viewport.Mode
	Page      int
	CardIndex int
	ItemCount int
}

// ItemsPerPage is 4 in wide mode and 1 in compact mode.
func (s State) ItemsPerPage() int {
	if s.Mode == viewport.Compact {
		return CompactItemsPerPage
	}
	return WideItemsPerPage
}

// TotalPages is ceil(ItemCount / ItemsPerPage), never less than 1.
func (s State) TotalPages() int {
	per := s.ItemsPerPage()
	pages := (s.ItemCount + per - 1) / per
	if pages < 1 {
		return 1
	}
	return pages
}

// VisibleRange returns the half-open catalog range rendered for this state.
// Compact mode renders the whole strip; wide mode renders the current page.
func (s State) VisibleRange() (start, end int) {
	if s.Mode == viewport.Compact {
		return 0, s.ItemCount
	}
	start = (s.Page - 1) * WideItemsPerPage
	end = start + WideItemsPerPage
	if end > s.ItemCount {
		end = s.ItemCount
	}
	if start > end {
		start = end
	}
	return start, end
}

// NavDisabled reports whether the arrow on side has nowhere to go.
func (s State) NavDisabled(side Side) bool {
	if s.ItemCount == 0 {
		return true
	}
	if s.Mode == viewport.Compact {
		if side == Left {
			return s.CardIndex == 0
		}
		return s.CardIndex == s.ItemCount-1
	}
	if side == Left {
		return s.Page == 1
	}
	return s.Page == s.TotalPages()
}

// DotPageNumber is the 1-based index of the highlighted pagination dot.
func (s State) DotPageNumber() int {
	return s.CardIndex/CompactItemsPerPage + 1
}

// DotCount is the number of pagination dots: one per item in compact mode, none otherwise.
func (s State) DotCount() int {
	if s.Mode != viewport.Compact || s.ItemCount == 0 {
		return 0
	}
	return s.TotalPages()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
