package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
)

type groupsData struct {
	Groups []domain.TagGroup `json:"groups"`
	Total  int               `json:"total"`
}

func queryFrom(r *http.Request) domain.Query {
	q := r.URL.Query()
	return domain.Query{
		Keyword: q.Get("q"),
		Tags:    domain.ParseTagFilter(q.Get("tags")),
	}
}

// Search handles GET /api/search?userId=&q=&tags=
func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookmarks, err := d.Bookmarks.Search(r.Context(), r.URL.Query().Get("userId"), queryFrom(r))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeData(w, http.StatusOK, listData{Bookmarks: bookmarks, Total: len(bookmarks)})
	}
}

// Groups handles GET /api/groups?userId=&q=&tags=
// total counts groups, not bookmarks.
func Groups(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups, err := d.Bookmarks.Groups(r.Context(), r.URL.Query().Get("userId"), queryFrom(r))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeData(w, http.StatusOK, groupsData{Groups: groups, Total: len(groups)})
	}
}
