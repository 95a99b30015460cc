// fingerprint.go generates stable hashes for grouping similar errors and
// throttles repeats of the same error.

package crashlog

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Fingerprint generates a hash for grouping similar messages.
// The fingerprint is based on:
//   - type, source, application
//   - the title with numbers, hex addresses and quoted values normalized
//
// It ignores variable data like timestamps, IDs and breadcrumbs.
func Fingerprint(msg *TelemetryMessage) string {
	parts := []string{
		msg.Type,
		msg.Source,
		msg.Application,
		normalizeTitle(msg.Title),
	}

	input := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(input))

	// Return hex-encoded first 16 bytes (32 hex chars)
	return hex.EncodeToString(hash[:16])
}

var (
	// Match memory addresses like "0x1234abcd"
	memAddrPattern = regexp.MustCompile(`0x[0-9a-fA-F]+`)

	// Match quoted values like "foo" or 'bar'
	quotedPattern = regexp.MustCompile(`"[^"]*"|'[^']*'`)

	// Match decimal numbers
	numberPattern = regexp.MustCompile(`\d+`)
)

// normalizeTitle strips variable data from an error title.
func normalizeTitle(title string) string {
	title = memAddrPattern.ReplaceAllString(title, "0x")
	title = quotedPattern.ReplaceAllString(title, `""`)
	return numberPattern.ReplaceAllString(title, "N")
}

// FloodGuard limits how often messages sharing a fingerprint are delivered.
// It is safe for concurrent use.
type FloodGuard struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	maxKeys  int
}

// NewFloodGuard allows burst messages per fingerprint, refilled at one
// message per interval.
func NewFloodGuard(interval time.Duration, burst int) *FloodGuard {
	if burst < 1 {
		burst = 1
	}
	return &FloodGuard{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(interval),
		burst:    burst,
		maxKeys:  1000,
	}
}

// Allow reports whether a message with the given fingerprint may be delivered now.
func (g *FloodGuard) Allow(fingerprint string) bool {
	return g.allowAt(fingerprint, time.Now())
}

func (g *FloodGuard) allowAt(fingerprint string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	l, ok := g.limiters[fingerprint]
	if !ok {
		if len(g.limiters) >= g.maxKeys {
			// Forget everything rather than grow without bound.
			g.limiters = make(map[string]*rate.Limiter)
		}
		l = rate.NewLimiter(g.limit, g.burst)
		g.limiters[fingerprint] = l
	}
	return l.AllowN(now, 1)
}
