// scrubber.go implements sensitive data redaction for messages and installations.

package crashlog

import (
	"regexp"
	"strings"
)

// Redaction placeholder written in place of sensitive values.
const redacted = "[REDACTED]"

// ScrubberConfig controls scrubbing behavior.
type ScrubberConfig struct {
	// SensitiveKeys contains additional case-insensitive substrings marking
	// data keys and environment variable names as sensitive.
	SensitiveKeys []string

	// MaxTitleSize is the maximum length for titles (default: 1024).
	MaxTitleSize int

	// MaxDetailSize is the maximum length for details (default: 32768).
	MaxDetailSize int

	// MaxValueSize is the maximum length per data value (default: 1024).
	MaxValueSize int

	// ScrubText enables pattern scrubbing of free text for secrets/PII (default: true).
	ScrubText bool
}

// DefaultScrubberConfig returns production-safe defaults.
func DefaultScrubberConfig() ScrubberConfig {
	return ScrubberConfig{
		MaxTitleSize:  1024,
		MaxDetailSize: 32768,
		MaxValueSize:  1024,
		ScrubText:     true,
	}
}

// Compiled regex patterns for text scrubbing (compiled once at package init)
var textScrubPatterns = []*regexp.Regexp{
	// API keys and tokens
	regexp.MustCompile(`(?i)(api[_-]?key|token)[=:\s]+['"]?[\w\-\.]+['"]?`),
	regexp.MustCompile(`(?i)(authorization|bearer)[=:\s]+['"]?[\w\-\.]+['"]?[\s]+['"]?[\w\-\.]+['"]?`), // Authorization: Bearer <token>
	regexp.MustCompile(`(?i)sk-[a-zA-Z0-9_-]{20,}`),                                // OpenAI-style keys (including sk-proj-)
	regexp.MustCompile(`(?i)ghp_[a-zA-Z0-9]{36}`),                                  // GitHub tokens
	regexp.MustCompile(`(?i)github_pat_[a-zA-Z0-9_]{22,}`),                         // GitHub PAT
	regexp.MustCompile(`(?i)eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`), // JWT tokens

	// Credentials
	regexp.MustCompile(`(?i)password[=:\s]+['"]?[^\s'"",]+['"]?`),
	regexp.MustCompile(`(?i)secret[=:\s]+['"]?[^\s'"",]+['"]?`),
	regexp.MustCompile(`(?i)passwd[=:\s]+['"]?[^\s'"",]+['"]?`),
	regexp.MustCompile(`(?i)credential[=:\s]+['"]?[^\s'"",]+['"]?`),

	// PII
	regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`), // Email
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),                               // SSN
	regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`),          // Credit card
}

// Sensitive key patterns (case-insensitive substring match)
var sensitiveKeyPatterns = []string{
	"token",
	"key",
	"secret",
	"password",
	"credential",
	"auth",
	"passwd",
}

// Keys written by this package that match a sensitive pattern but hold no secret
var safeKeys = map[string]bool{
	"ResourceKey": true,
}

// Path patterns to normalize in details and stack traces
var pathNormalizationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/home/[^/]+/`),
	regexp.MustCompile(`/Users/[^/]+/`),
	regexp.MustCompile(`C:\\Users\\[^\\]+\\`),
}

// Scrubber redacts sensitive data before delivery.
type Scrubber struct {
	cfg ScrubberConfig
}

// NewScrubber creates a new scrubber with the given configuration.
func NewScrubber(cfg ScrubberConfig) *Scrubber {
	return &Scrubber{cfg: cfg}
}

// ScrubMessage redacts msg in place: title, detail, data, URL and breadcrumb messages.
func (s *Scrubber) ScrubMessage(msg *TelemetryMessage) {
	msg.Title = truncateWithMarker(s.ScrubText(msg.Title), s.cfg.MaxTitleSize)
	msg.Detail = s.ScrubDetail(msg.Detail)
	msg.URL = s.ScrubText(msg.URL)
	msg.Data = s.ScrubItems(msg.Data)
	for i := range msg.Breadcrumbs {
		msg.Breadcrumbs[i].Message = s.ScrubText(msg.Breadcrumbs[i].Message)
	}
}

// ScrubInstallation redacts environment variables and config file contents in place.
func (s *Scrubber) ScrubInstallation(inst *Installation) {
	for i := range inst.Loggers {
		l := &inst.Loggers[i]
		l.EnvironmentVariables = s.ScrubItems(l.EnvironmentVariables)
		for j := range l.ConfigFiles {
			l.ConfigFiles[j].Content = s.ScrubText(l.ConfigFiles[j].Content)
		}
	}
}

// ScrubText scrubs sensitive patterns from free text.
func (s *Scrubber) ScrubText(text string) string {
	if !s.cfg.ScrubText || text == "" {
		return text
	}
	for _, pattern := range textScrubPatterns {
		text = pattern.ReplaceAllString(text, redacted)
	}
	return text
}

// ScrubDetail normalizes user paths, scrubs text and limits size.
func (s *Scrubber) ScrubDetail(detail string) string {
	if detail == "" {
		return detail
	}
	for _, pattern := range pathNormalizationPatterns {
		detail = pattern.ReplaceAllString(detail, "/[PATH]/")
	}
	return truncateWithMarker(s.ScrubText(detail), s.cfg.MaxDetailSize)
}

// ScrubItems redacts values of sensitive keys and truncates long values.
func (s *Scrubber) ScrubItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	result := make([]Item, len(items))
	for i, item := range items {
		if s.isSensitiveKey(item.Key) {
			item.Value = redacted
		} else {
			item.Value = truncateWithMarker(s.ScrubText(item.Value), s.cfg.MaxValueSize)
		}
		result[i] = item
	}
	return result
}

// isSensitiveKey checks if a key matches sensitive patterns.
func (s *Scrubber) isSensitiveKey(key string) bool {
	if safeKeys[key] {
		return false
	}
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	for _, pattern := range s.cfg.SensitiveKeys {
		if pattern != "" && strings.Contains(keyLower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// truncateWithMarker truncates a string and adds a truncation marker.
// A maxLen of zero or less disables truncation.
func truncateWithMarker(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	marker := "...[TRUNCATED]"
	if maxLen <= len(marker) {
		return marker[:maxLen]
	}
	return s[:maxLen-len(marker)] + marker
}
