package scrape

import (
	"fmt"
	"strings"
)

// Cursor tracks traversal position across an offset-addressed listing. It is
// pure address bookkeeping: the decision that no further page exists comes
// from the listing extraction and is applied via Stop.
type Cursor struct {
	offset    int
	pageSize  int
	maxOffset int
	stopped   bool
}

// NewCursor builds a cursor starting at offset zero. maxOffset of zero means
// the traversal is bounded only by the site-reported next-page signal.
func NewCursor(pageSize, maxOffset int) *Cursor {
	if pageSize <= 0 {
		pageSize = 1
	}
	return &Cursor{pageSize: pageSize, maxOffset: maxOffset}
}

// HasNext reports whether another listing page should be visited.
func (c *Cursor) HasNext() bool {
	if c.stopped {
		return false
	}
	if c.maxOffset > 0 && c.offset > c.maxOffset {
		return false
	}
	return true
}

// CurrentAddress composes the listing URL for the current offset. The offset
// parameter is omitted entirely on the first page.
func (c *Cursor) CurrentAddress(base string) string {
	if c.offset == 0 {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%soffset=%d", base, sep, c.offset)
}

// Advance moves the cursor to the next page.
func (c *Cursor) Advance() {
	c.offset += c.pageSize
}

// Stop forces HasNext to return false from now on.
func (c *Cursor) Stop() {
	c.stopped = true
}

// Offset returns the current offset, mostly for logging.
func (c *Cursor) Offset() int {
	return c.offset
}
