// Package carousel owns the pagination state of the catalog grid: which items are
// visible, where the page and card counters are, and which arrows are enabled.
package carousel

import (
	"sync"

	"finitefield.org/artifacts-web/internal/catalog"
	"finitefield.org/artifacts-web/internal/viewport"
)

// ScrollKind distinguishes relative and absolute scroll instructions.
type ScrollKind int

const (
	// ScrollBy scrolls relative to the current offset.
	ScrollBy ScrollKind = iota
	// ScrollTo scrolls to an absolute offset.
	ScrollTo
)

func (k ScrollKind) String() string {
	if k == ScrollTo {
		return "to"
	}
	return "by"
}

// ScrollInstruction is a fire-and-forget smooth scroll for the carousel strip.
type ScrollInstruction struct {
	Kind ScrollKind
	Left float64
}

// Change is delivered to observers after every mutation.
type Change struct {
	State  State
	Scroll *ScrollInstruction
	Cause  string
}

// Measurer reports the rendered card width. ok is false while no card can be measured.
type Measurer interface {
	CardWidth() (width float64, ok bool)
}

type observer struct {
	id uint64
	fn func(Change)
}

// Controller is the single source of truth for the catalog pagination state.
// All operations are serialised; observers run after the lock is released.
type Controller struct {
	mu       sync.Mutex
	cat      *catalog.Catalog
	measurer Measurer

	mode      viewport.Mode
	page      int
	cardIndex int

	observers []observer
	nextID    uint64
	closed    bool
}

// New creates a controller at page 1 / card 0 in the given mode.
func New(cat *catalog.Catalog, mode viewport.Mode, m Measurer) *Controller {
	return &Controller{
		cat:       cat,
		measurer:  m,
		mode:      mode,
		page:      1,
		cardIndex: 0,
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	return State{
		Mode:      c.mode,
		Page:      c.page,
		CardIndex: c.cardIndex,
		ItemCount: c.cat.Len(),
	}
}

// ItemCount is the catalog size.
func (c *Controller) ItemCount() int { return c.cat.Len() }

// ItemsPerPage is derived from the current mode.
func (c *Controller) ItemsPerPage() int { return c.Snapshot().ItemsPerPage() }

// TotalPages is derived from the current mode and catalog size.
func (c *Controller) TotalPages() int { return c.Snapshot().TotalPages() }

// NavDisabled reports whether an arrow is disabled.
func (c *Controller) NavDisabled(side Side) bool { return c.Snapshot().NavDisabled(side) }

// DotPageNumber is the highlighted pagination dot (compact mode).
func (c *Controller) DotPageNumber() int { return c.Snapshot().DotPageNumber() }

// DotCount is the number of pagination dots to render.
func (c *Controller) DotCount() int { return c.Snapshot().DotCount() }

// VisibleItems returns the whole catalog in compact mode and the current page in wide mode.
func (c *Controller) VisibleItems() []catalog.Item {
	start, end := c.Snapshot().VisibleRange()
	return c.cat.Slice(start, end)
}

// OnModeChange switches mode and resets the counter of the mode being entered.
// Calling it with the current mode does nothing.
func (c *Controller) OnModeChange(next viewport.Mode) {
	c.apply("mode", func() (bool, *ScrollInstruction) {
		if next == c.mode {
			return false, nil
		}
		c.mode = next
		if next == viewport.Compact {
			c.cardIndex = 0
		} else {
			c.page = 1
		}
		return true, nil
	})
}

// ChangePage moves the wide-mode page by one, clamped to [1, TotalPages].
// It is ignored in compact mode.
func (c *Controller) ChangePage(dir Direction) {
	c.apply("page", func() (bool, *ScrollInstruction) { return c.changePageLocked(dir) })
}

// ScrollCarousel moves the compact-mode card index by one, clamped to the catalog,
// and asks the strip to scroll one card width plus gap. The scroll is skipped when
// no card can be measured; the index moves regardless.
func (c *Controller) ScrollCarousel(dir Direction) {
	c.apply("scroll", func() (bool, *ScrollInstruction) { return c.scrollLocked(dir) })
}

// JumpToCard selects a card directly (pagination dot click) and scrolls the strip to it.
// Targets outside the catalog are clamped. It is ignored in wide mode.
func (c *Controller) JumpToCard(target int) {
	c.apply("jump", func() (bool, *ScrollInstruction) {
		n := c.cat.Len()
		if c.mode != viewport.Compact || n == 0 {
			return false, nil
		}
		target = clamp(target, 0, n-1)
		changed := target != c.cardIndex
		c.cardIndex = target

		var scroll *ScrollInstruction
		if w, ok := c.cardWidthLocked(); ok {
			scroll = &ScrollInstruction{Kind: ScrollTo, Left: float64(target) * (w + CardGap)}
		}
		return changed, scroll
	})
}

// Navigate handles an arrow click: carousel scroll in compact mode, paging in wide mode.
func (c *Controller) Navigate(side Side) {
	c.apply("nav", func() (bool, *ScrollInstruction) {
		if c.mode == viewport.Compact {
			return c.scrollLocked(side.Direction())
		}
		return c.changePageLocked(side.Direction())
	})
}

func (c *Controller) changePageLocked(dir Direction) (bool, *ScrollInstruction) {
	if c.mode != viewport.Wide {
		return false, nil
	}
	total := c.stateLocked().TotalPages()
	next := clamp(c.page+dir.step(), 1, total)
	if next == c.page {
		return false, nil
	}
	c.page = next
	return true, nil
}

func (c *Controller) scrollLocked(dir Direction) (bool, *ScrollInstruction) {
	n := c.cat.Len()
	if c.mode != viewport.Compact || n == 0 {
		return false, nil
	}
	next := clamp(c.cardIndex+dir.step(), 0, n-1)
	changed := next != c.cardIndex
	c.cardIndex = next

	var scroll *ScrollInstruction
	if w, ok := c.cardWidthLocked(); ok {
		step := w + CardGap
		if dir == Prev {
			step = -step
		}
		scroll = &ScrollInstruction{Kind: ScrollBy, Left: step}
	}
	return changed, scroll
}

// Subscribe registers fn to be called synchronously after each mutation, in
// subscription order. The returned cancel func is idempotent.
func (c *Controller) Subscribe(fn func(Change)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || fn == nil {
		return func() {}
	}
	c.nextID++
	id := c.nextID
	c.observers = append(c.observers, observer{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, o := range c.observers {
				if o.id == id {
					c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// Observers reports the number of active subscriptions.
func (c *Controller) Observers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.observers)
}

// Close drops every observer; later mutations are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.observers = nil
	c.mu.Unlock()
}

func (c *Controller) cardWidthLocked() (float64, bool) {
	if c.measurer == nil {
		return 0, false
	}
	w, ok := c.measurer.CardWidth()
	if !ok || w <= 0 {
		return 0, false
	}
	return w, true
}

// apply runs fn under the lock and notifies observers when the state changed or a
// scroll instruction was produced.
func (c *Controller) apply(cause string, fn func() (bool, *ScrollInstruction)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	changed, scroll := fn()
	if !changed && scroll == nil {
		c.mu.Unlock()
		return
	}
	ch := Change{State: c.stateLocked(), Scroll: scroll, Cause: cause}
	obs := make([]observer, len(c.observers))
	copy(obs, c.observers)
	c.mu.Unlock()

	for _, o := range obs {
		o.fn(ch)
	}
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
