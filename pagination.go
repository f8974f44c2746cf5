package blogpanel

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
)

// cursorPos is the keyset position of a record in updated_at-descending
// order. It round-trips through an opaque URL-safe string so clients can
// never treat it as an offset.
type cursorPos struct {
	UpdatedAt int64  `json:"u"`
	ID        string `json:"id"`
}

func encodeCursor(p cursorPos) string {
	b, _ := json.Marshal(p)
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeCursor(s string) (cursorPos, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return cursorPos{}, fmt.Errorf("decode cursor: %w", err)
	}
	var p cursorPos
	if err := json.Unmarshal(b, &p); err != nil {
		return cursorPos{}, fmt.Errorf("decode cursor: %w", err)
	}
	return p, nil
}

// pageSource is the slice of the store the Pager consumes.
type pageSource interface {
	ListPage(pageSize int, cursor string) (Page, error)
}

// Pager accumulates fixed-size pages over one logical query session. Page k+1
// is never requested before page k's cursor is known, a fetch error leaves the
// session unchanged so the same page can be retried, and once a page reports
// HasMore=false the session is exhausted until Reset.
type Pager struct {
	mu       sync.Mutex
	source   pageSource
	pageSize int

	pages     []Page
	exhausted bool
	fetching  bool
	gen       int
}

// NewPager creates a Pager in the initial state: no pages fetched, the first
// LoadMore requests page 0 with no cursor.
func NewPager(source pageSource, pageSize int) *Pager {
	return &Pager{source: source, pageSize: pageSize}
}

// LoadMore fetches the next page and appends it to the session. It returns
// nil with no error when the session is exhausted or an identical fetch is
// already in flight.
func (p *Pager) LoadMore() (*Page, error) {
	p.mu.Lock()
	if p.exhausted || p.fetching {
		p.mu.Unlock()
		return nil, nil
	}
	cursor := ""
	if n := len(p.pages); n > 0 {
		cursor = p.pages[n-1].Cursor
	}
	p.fetching = true
	gen := p.gen
	p.mu.Unlock()

	page, err := p.source.ListPage(p.pageSize, cursor)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetching = false
	if gen != p.gen {
		// Reset happened mid-fetch; the result belongs to a dead session.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.pages = append(p.pages, page)
	if !page.HasMore {
		p.exhausted = true
	}
	return &page, nil
}

// Items returns the concatenation of all cached pages' items in page order.
func (p *Pager) Items() []BlogRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	var items []BlogRecord
	for _, pg := range p.pages {
		items = append(items, pg.Items...)
	}
	return items
}

// Pages returns how many pages the session holds.
func (p *Pager) Pages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pages)
}

// Exhausted reports whether forward pagination has terminated.
func (p *Pager) Exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exhausted
}

// Reset discards the session so the next LoadMore starts from page 0. An
// in-flight fetch from the old session is discarded when it lands.
func (p *Pager) Reset() {
	p.mu.Lock()
	p.pages = nil
	p.exhausted = false
	p.gen++
	p.mu.Unlock()
}
