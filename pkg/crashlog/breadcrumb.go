// breadcrumb.go implements the bounded breadcrumb history attached to captured errors.

package crashlog

import (
	"sort"
	"sync"
	"time"
)

// Breadcrumb defaults applied at flush time.
const (
	DefaultBreadcrumbSeverity = SeverityInformation
	DefaultBreadcrumbAction   = "Log"
)

// Breadcrumb is a lightweight record of a recent user or navigation event.
// Zero-valued fields are filled in when the store is flushed.
type Breadcrumb struct {
	// Timestamp is when the event happened. Zero means "now" at flush time.
	Timestamp time.Time `json:"dateTime"`

	// Severity defaults to Information.
	Severity Severity `json:"severity"`

	// Action is the kind of event (Click, Navigation, Log, ...). Defaults to Log.
	Action string `json:"action"`

	// Message is optional free text.
	Message string `json:"message,omitempty"`
}

// BreadcrumbStore holds at most capacity breadcrumbs.
// Add and Flush are mutually exclusive and safe for concurrent use.
type BreadcrumbStore struct {
	mu       sync.Mutex
	items    []Breadcrumb
	capacity int
	now      func() time.Time
}

// NewBreadcrumbStore creates a store bounded to capacity entries.
// A capacity below 1 is treated as 1.
func NewBreadcrumbStore(capacity int) *BreadcrumbStore {
	if capacity < 1 {
		capacity = 1
	}
	return &BreadcrumbStore{
		items:    make([]Breadcrumb, 0, capacity+1),
		capacity: capacity,
		now:      time.Now,
	}
}

// Add appends a breadcrumb. When the store grows past capacity the entry with
// the smallest timestamp is evicted; ties go to the earliest inserted.
func (s *BreadcrumbStore) Add(b Breadcrumb) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append(s.items, b)
	if len(s.items) <= s.capacity {
		return
	}

	oldest := 0
	for i := 1; i < len(s.items); i++ {
		if s.items[i].Timestamp.Before(s.items[oldest].Timestamp) {
			oldest = i
		}
	}
	s.items = append(s.items[:oldest], s.items[oldest+1:]...)
}

// Len returns the number of stored breadcrumbs.
func (s *BreadcrumbStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Capacity returns the maximum number of stored breadcrumbs.
func (s *BreadcrumbStore) Capacity() int {
	return s.capacity
}

// Flush drains the store. Defaults are filled in and the result is ordered
// most recent first. The returned slice is never nil.
func (s *BreadcrumbStore) Flush() []Breadcrumb {
	s.mu.Lock()
	items := s.items
	s.items = make([]Breadcrumb, 0, s.capacity+1)
	s.mu.Unlock()

	now := s.now()
	for i := range items {
		if items[i].Timestamp.IsZero() {
			items[i].Timestamp = now
		}
		if items[i].Severity == "" {
			items[i].Severity = DefaultBreadcrumbSeverity
		}
		if items[i].Action == "" {
			items[i].Action = DefaultBreadcrumbAction
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	return items
}
