package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns "<unix millis>-<9 random hex chars>". Collisions need two
// creates in the same millisecond drawing the same 36 random bits.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix[:9]
}
