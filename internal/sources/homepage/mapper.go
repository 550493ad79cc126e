package homepage

import (
	"sort"
	"strings"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
)

// Drafts flattens cfg into bookmark drafts, in file order.
//
// The group name becomes the only tag, the bookmark name the title (abbr when
// the name is blank). Icons are kept only when they are absolute http(s) URLs;
// Homepage icon shorthands like "github.png" mean nothing outside Homepage.
// Entries without href are dropped.
func Drafts(cfg Config) []domain.Draft {
	drafts := make([]domain.Draft, 0)

	for _, group := range cfg {
		for _, groupName := range sortedKeys(group) {
			for _, item := range group[groupName] {
				for _, name := range sortedKeys(item) {
					entries := item[name]
					if len(entries) == 0 || strings.TrimSpace(entries[0].Href) == "" {
						continue
					}
					e := entries[0]

					title := strings.TrimSpace(name)
					if title == "" {
						title = e.Abbr
					}

					var tags []string
					if strings.TrimSpace(groupName) != "" {
						tags = []string{groupName}
					}

					drafts = append(drafts, domain.Draft{
						URL:         e.Href,
						Title:       title,
						Description: e.Description,
						Tags:        tags,
						Favicon:     iconURL(e.Icon),
					})
				}
			}
		}
	}

	return drafts
}

func iconURL(icon string) string {
	icon = strings.TrimSpace(icon)
	if strings.HasPrefix(icon, "https://") || strings.HasPrefix(icon, "http://") {
		return icon
	}
	return ""
}

// sortedKeys keeps the output stable when a YAML item holds several keys.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
