package domain

import (
	"sort"
	"strings"
)

// Query narrows a bookmark list. Both parts are optional and combine with AND.
type Query struct {
	Keyword string
	// Tags are matched case-insensitively with OR semantics.
	Tags []string
}

// ParseTagFilter splits a comma separated tag list, trimming and lowercasing
// each entry: "Work, x" -> ["work", "x"]. Empty entries are kept and match no
// bookmark, so "," filters everything out. An empty raw value means no filter.
func ParseTagFilter(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return parts
}

// MatchKeyword reports whether keyword occurs, ignoring case, in the title,
// the url or the description. The keyword is used as given, surrounding
// spaces included. An empty keyword matches everything.
func MatchKeyword(b Bookmark, keyword string) bool {
	if keyword == "" {
		return true
	}
	keyword = strings.ToLower(keyword)
	for _, field := range []string{b.Title, b.URL, b.Description} {
		if strings.Contains(strings.ToLower(field), keyword) {
			return true
		}
	}
	return false
}

// MatchTags reports whether any of b's tags equals any filter tag, ignoring
// case. An empty filter matches everything.
func MatchTags(b Bookmark, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, t := range b.Tags {
		for _, f := range filter {
			if strings.EqualFold(t, f) {
				return true
			}
		}
	}
	return false
}

// Filter returns the bookmarks matching q in their original order.
func Filter(bookmarks []Bookmark, q Query) []Bookmark {
	out := make([]Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if MatchKeyword(b, q.Keyword) && MatchTags(b, q.Tags) {
			out = append(out, b)
		}
	}
	return out
}

// TagGroup is one display group: every bookmark carrying Tag.
type TagGroup struct {
	Tag       string     `json:"tag"`
	Bookmarks []Bookmark `json:"bookmarks"`
	Total     int        `json:"total"`
}

// GroupByTag puts each bookmark in one group per tag. Untagged bookmarks land
// in DefaultTag. Groups are ordered by size, largest first; equal sizes keep
// the order in which their tag was first seen.
func GroupByTag(bookmarks []Bookmark) []TagGroup {
	groups := make([]TagGroup, 0)
	pos := make(map[string]int)
	seen := make(map[string]map[string]struct{})

	for _, b := range bookmarks {
		tags := b.Tags
		if len(tags) == 0 {
			tags = []string{DefaultTag}
		}
		for _, tag := range tags {
			i, ok := pos[tag]
			if !ok {
				i = len(groups)
				pos[tag] = i
				groups = append(groups, TagGroup{Tag: tag, Bookmarks: []Bookmark{}})
				seen[tag] = make(map[string]struct{})
			}
			if _, dup := seen[tag][b.ID]; dup {
				continue
			}
			seen[tag][b.ID] = struct{}{}
			groups[i].Bookmarks = append(groups[i].Bookmarks, b)
		}
	}

	for i := range groups {
		groups[i].Total = len(groups[i].Bookmarks)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Total > groups[j].Total
	})
	return groups
}
