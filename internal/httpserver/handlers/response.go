package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	"github.com/MrSnakeDoc/bookmarkd/internal/store"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

const (
	MsgInvalidJSON     = "Invalid JSON body"
	MsgNotFound        = "Bookmark not found"
	MsgUnauthorized    = "Unauthorized: Invalid or missing API Key"
	MsgEndpoint        = "Endpoint not found"
	MsgUnavailable     = "Storage unavailable, please retry"
	MsgConflict        = "Bookmarks were modified concurrently, please retry"
	MsgCorruptDocument = "Stored bookmarks are unreadable"
	MsgInternal        = "Internal server error"
)

// envelope is the body of every /api response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type listData struct {
	Bookmarks []domain.Bookmark `json:"bookmarks"`
	Total     int               `json:"total"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, envelope{Success: true, Data: data})
}

// WriteFailure writes the shared error shape.
func WriteFailure(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, envelope{Success: false, Error: msg})
}

// writeError maps err to a status and a message safe to expose.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		WriteFailure(w, http.StatusBadRequest, ve.Msg)
		return
	case errors.Is(err, domain.ErrNotFound):
		WriteFailure(w, http.StatusNotFound, MsgNotFound)
		return
	}

	status, msg := http.StatusInternalServerError, MsgInternal
	switch {
	case errors.Is(err, store.ErrConflict):
		status, msg = http.StatusConflict, MsgConflict
	case errors.Is(err, store.ErrUnavailable):
		msg = MsgUnavailable
	case errors.Is(err, domain.ErrCorruptDocument):
		msg = MsgCorruptDocument
	}

	log.Error("request failed",
		logger.String("method", r.Method),
		logger.String("path", r.URL.Path),
		logger.Int("status", status),
		logger.String("request_id", middleware.GetReqID(r.Context())),
		logger.Error(err))
	WriteFailure(w, status, msg)
}

// decodeJSON reads a JSON body into dst. Any decoding problem is reported as
// a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Invalid(MsgInvalidJSON)
	}
	return nil
}
