package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkd/internal/service"
)

type createRequest struct {
	UserID      string   `json:"userId"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Favicon     string   `json:"favicon"`
}

type createResponse struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"createdAt"`
}

// updateRequest keeps absent fields nil so they are left untouched.
type updateRequest struct {
	UserID      string    `json:"userId"`
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
}

// ListBookmarks handles GET /api/bookmarks?userId=
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookmarks, err := d.Bookmarks.List(r.Context(), r.URL.Query().Get("userId"))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeData(w, http.StatusOK, listData{Bookmarks: bookmarks, Total: len(bookmarks)})
	}
}

// CreateBookmark handles POST /api/bookmarks
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		b, err := d.Bookmarks.Create(r.Context(), service.CreateInput{
			UserID: req.UserID,
			Draft: domain.Draft{
				URL:         req.URL,
				Title:       req.Title,
				Description: req.Description,
				Tags:        req.Tags,
				Favicon:     req.Favicon,
			},
		})
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeData(w, http.StatusCreated, createResponse{ID: b.ID, CreatedAt: b.CreatedAt})
	}
}

// UpdateBookmark handles PUT /api/bookmarks/{id}
func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		b, err := d.Bookmarks.Update(r.Context(), req.UserID, chi.URLParam(r, "id"), domain.Patch{
			Title:       req.Title,
			Description: req.Description,
			Tags:        req.Tags,
		})
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeData(w, http.StatusOK, b)
	}
}

// DeleteBookmark handles DELETE /api/bookmarks/{id}?userId=
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := d.Bookmarks.Delete(r.Context(), r.URL.Query().Get("userId"), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, envelope{Success: true})
	}
}
