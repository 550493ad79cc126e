package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// Field caps. Lengths are counted in code points.
const (
	MaxURLLength         = 2048
	MaxTitleLength       = 200
	MaxDescriptionLength = 500
	MaxTagLength         = 20
	MaxTags              = 10
)

// DefaultFaviconService is queried with ?domain=<host> when no favicon is given.
const DefaultFaviconService = "https://www.google.com/s2/favicons"

// Client facing validation messages.
const (
	MsgMissingUserID   = "Missing userId parameter"
	MsgMissingRequired = "Missing required fields: userId, url, title"
	MsgURLTooLong      = "URL exceeds maximum length of 2048 characters"
	MsgTitleTooLong    = "Title exceeds maximum length of 200 characters"
	MsgDescTooLong     = "Description exceeds maximum length of 500 characters"
	MsgTooManyTags     = "Maximum 10 tags allowed"
	MsgTitleEmpty      = "Title cannot be empty"
	MsgInvalidURL      = "Invalid URL"
)

// Draft is the client input for a new bookmark.
type Draft struct {
	URL         string
	Title       string
	Description string
	Tags        []string
	Favicon     string
}

// Validate checks presence and caps. Caps apply to the values as received.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.URL) == "" || strings.TrimSpace(d.Title) == "" {
		return Invalid(MsgMissingRequired)
	}
	if tooLong(d.URL, MaxURLLength) {
		return Invalid(MsgURLTooLong)
	}
	if tooLong(d.Title, MaxTitleLength) {
		return Invalid(MsgTitleTooLong)
	}
	if tooLong(d.Description, MaxDescriptionLength) {
		return Invalid(MsgDescTooLong)
	}
	if len(d.Tags) > MaxTags {
		return Invalid(MsgTooManyTags)
	}
	if strings.TrimSpace(d.Favicon) == "" {
		if _, err := Hostname(d.URL); err != nil {
			return Invalid(MsgInvalidURL)
		}
	}
	return nil
}

// Build turns a validated draft into a stored record.
// faviconService may be empty, in which case DefaultFaviconService is used.
func (d Draft) Build(id string, now time.Time, faviconService string) Bookmark {
	ts := now.UnixMilli()
	rawURL := strings.TrimSpace(d.URL)

	favicon := strings.TrimSpace(d.Favicon)
	if favicon == "" {
		favicon = FaviconURL(rawURL, faviconService)
	}

	return Bookmark{
		ID:          id,
		URL:         rawURL,
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Tags:        TagsOrDefault(d.Tags),
		Favicon:     favicon,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

// Patch carries the optional fields of an update. A nil field is left alone.
type Patch struct {
	Title       *string
	Description *string
	Tags        *[]string
}

// Empty reports whether the patch touches no field.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Tags == nil
}

// Validate applies the create caps to every supplied field.
func (p Patch) Validate() error {
	if p.Title != nil {
		if tooLong(*p.Title, MaxTitleLength) {
			return Invalid(MsgTitleTooLong)
		}
		if strings.TrimSpace(*p.Title) == "" {
			return Invalid(MsgTitleEmpty)
		}
	}
	if p.Description != nil && tooLong(*p.Description, MaxDescriptionLength) {
		return Invalid(MsgDescTooLong)
	}
	if p.Tags != nil && len(*p.Tags) > MaxTags {
		return Invalid(MsgTooManyTags)
	}
	return nil
}

// Apply mutates b in place. Tags are cleaned but, unlike Build, an empty
// result is kept empty. UpdatedAt never moves backwards.
func (p Patch) Apply(b *Bookmark, now time.Time) {
	if p.Title != nil {
		b.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		b.Description = strings.TrimSpace(*p.Description)
	}
	if p.Tags != nil {
		b.Tags = CleanTags(*p.Tags)
	}
	ts := now.UnixMilli()
	if ts < b.UpdatedAt {
		ts = b.UpdatedAt
	}
	b.UpdatedAt = ts
}

// CleanTags trims each tag, truncates it to MaxTagLength and drops blanks.
// Duplicates are kept. The result is never nil.
func CleanTags(raw []string) []string {
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		t = truncate(strings.TrimSpace(t), MaxTagLength)
		if t == "" {
			continue
		}
		tags = append(tags, t)
	}
	return tags
}

// TagsOrDefault is CleanTags with the create-time fallback to DefaultTag.
func TagsOrDefault(raw []string) []string {
	tags := CleanTags(raw)
	if len(tags) == 0 {
		return []string{DefaultTag}
	}
	return tags
}

// Hostname extracts the host of an absolute URL.
func Hostname(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}
	return u.Hostname(), nil
}

// FaviconURL derives the favicon service URL for rawURL's host.
func FaviconURL(rawURL, service string) string {
	if service == "" {
		service = DefaultFaviconService
	}
	host, err := Hostname(rawURL)
	if err != nil {
		return ""
	}
	return service + "?domain=" + url.QueryEscape(host)
}

func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
