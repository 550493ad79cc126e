package mw

import (
	"crypto/subtle"
	"net/http"

	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
)

const APIKeyHeader = "X-API-Key"

// APIKey rejects with 401 every request whose X-API-Key header differs from
// key, except for the exempt paths.
func APIKey(key string, log logger.Logger, exempt ...string) func(http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(exempt))
	for _, p := range exempt {
		skip[p] = struct{}{}
	}
	want := []byte(key)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			got := []byte(r.Header.Get(APIKeyHeader))
			if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
				log.Debug("rejected request without a valid api key",
					logger.String("path", r.URL.Path),
					logger.Bool("key_present", len(got) > 0))
				handlers.WriteFailure(w, http.StatusUnauthorized, handlers.MsgUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
