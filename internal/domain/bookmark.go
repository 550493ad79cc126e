package domain

const (
	// DocumentVersion is the schema tag written into every user document.
	DocumentVersion = "1.0"

	// DefaultTag is applied on create when no usable tag was supplied.
	DefaultTag = "默认分类"
)

// Bookmark is a single saved URL and its metadata.
type Bookmark struct {
	// ID is generated on create and never changes.
	ID string `json:"id"`

	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`

	// Favicon is either supplied by the client or derived from the URL host.
	Favicon string `json:"favicon"`

	// CreatedAt and UpdatedAt are unix milliseconds.
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// Document is the single value stored per user.
//
// Bookmarks are kept newest first: creates prepend.
type Document struct {
	Version   string     `json:"version"`
	UserID    string     `json:"userId"`
	Bookmarks []Bookmark `json:"bookmarks"`
}

// NewDocument returns the empty document a user starts with.
func NewDocument(userID string) *Document {
	return &Document{
		Version:   DocumentVersion,
		UserID:    userID,
		Bookmarks: []Bookmark{},
	}
}

// Normalize fills the fields an older or hand-edited document may lack so
// that it always serializes with an array of bookmarks.
func (d *Document) Normalize(userID string) {
	if d.Version == "" {
		d.Version = DocumentVersion
	}
	if d.UserID == "" {
		d.UserID = userID
	}
	if d.Bookmarks == nil {
		d.Bookmarks = []Bookmark{}
	}
	for i := range d.Bookmarks {
		if d.Bookmarks[i].Tags == nil {
			d.Bookmarks[i].Tags = []string{}
		}
	}
}

// Find returns the index of the bookmark with id, or -1.
func (d *Document) Find(id string) int {
	for i := range d.Bookmarks {
		if d.Bookmarks[i].ID == id {
			return i
		}
	}
	return -1
}

// Prepend inserts b at the head of the list.
func (d *Document) Prepend(b ...Bookmark) {
	next := make([]Bookmark, 0, len(b)+len(d.Bookmarks))
	next = append(next, b...)
	d.Bookmarks = append(next, d.Bookmarks...)
}

// Remove drops every bookmark with id and reports whether the list shrank.
func (d *Document) Remove(id string) bool {
	before := len(d.Bookmarks)
	kept := d.Bookmarks[:0:0]
	for _, b := range d.Bookmarks {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	d.Bookmarks = kept
	return len(d.Bookmarks) != before
}

// HasURL reports whether any bookmark already points at url.
func (d *Document) HasURL(url string) bool {
	for i := range d.Bookmarks {
		if d.Bookmarks[i].URL == url {
			return true
		}
	}
	return false
}
