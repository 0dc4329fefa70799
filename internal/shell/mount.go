package shell

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// RootID is the id of the element the page is mounted into.
const RootID = "root"

var (
	ErrMountMissing   = errors.New("shell: mount element #root not found")
	ErrMountAmbiguous = errors.New("shell: more than one #root element")
)

// CheckMount parses a rendered layout and requires exactly one element with id="root".
func CheckMount(r io.Reader) error {
	doc, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("shell: parse layout: %w", err)
	}
	switch n := countID(doc, RootID); {
	case n == 0:
		return ErrMountMissing
	case n > 1:
		return fmt.Errorf("%w (%d found)", ErrMountAmbiguous, n)
	}
	return nil
}

func countID(n *html.Node, id string) int {
	count := 0
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Namespace == "" && a.Key == "id" && a.Val == id {
				count++
				break
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count += countID(c, id)
	}
	return count
}
