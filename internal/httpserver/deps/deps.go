package deps

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	"github.com/MrSnakeDoc/bookmarkd/internal/service"
	"github.com/MrSnakeDoc/bookmarkd/internal/store"
)

type Deps struct {
	Logger         logger.Logger
	Bookmarks      *service.BookmarkService
	Store          store.DocumentStore // pinged by /readyz
	APIKey         string              // expected X-API-Key value
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time // for testing, defaults to time.Now
	RequestTimeout time.Duration    // 0 disables the per-request deadline
	AllowedCIDRS   []string         // IPs allowed to access /readyz
	TrustProxy     bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)

	// APILimit guards /api routes. Nil when rate limiting is disabled.
	APILimit func(http.Handler) http.Handler
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
