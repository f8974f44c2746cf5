package blogpanel

import "time"

// BlogRecord is the core content type stored in SQLite and served by the API.
// Records are created once, mutated in place, and never physically deleted;
// UpdatedAt is rewritten on every mutation and is the pagination sort key.
type BlogRecord struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Content       string    `json:"content"`
	Publish       bool      `json:"publish"`
	Tags          []string  `json:"tags,omitempty"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Page is one fixed-size slice of the record collection. Cursor is the opaque
// keyset position of the last item, usable to request the page after it; it is
// never a numeric offset.
type Page struct {
	Items   []BlogRecord `json:"items"`
	Cursor  string       `json:"cursor,omitempty"`
	HasMore bool         `json:"has_more"`
}

// StoredImageResult describes the two blob representations written by a
// successful upload. Only the converted object's URL is returned to clients.
type StoredImageResult struct {
	BaseName     string
	OriginalPath string
	WebPPath     string
	PublicURL    string
}
