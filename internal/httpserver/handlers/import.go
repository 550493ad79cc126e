package handlers

import (
	"io"
	"net/http"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkd/internal/sources/homepage"
)

const MsgInvalidYAML = "Invalid bookmarks YAML body"

// Import handles POST /api/import?userId= with a Homepage bookmarks.yaml body.
func Import(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, r, d.Logger, domain.Invalid(MsgInvalidYAML))
			return
		}
		cfg, err := homepage.Parse(body)
		if err != nil {
			writeError(w, r, d.Logger, domain.Invalid(MsgInvalidYAML))
			return
		}

		result, err := d.Bookmarks.Import(r.Context(), r.URL.Query().Get("userId"), homepage.Drafts(cfg))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeData(w, http.StatusOK, result)
	}
}
