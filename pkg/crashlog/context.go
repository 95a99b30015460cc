// context.go provides utilities for attaching per-capture user and data
// through Go context.Context.

package crashlog

import "context"

// Context key types (unexported to avoid collisions)
type userKey struct{}
type dataKey struct{}

// WithUser returns a context carrying the user reported on captured messages.
// It overrides the OS account name.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext extracts the user from context.
// Returns empty string and false if not set or empty.
func UserFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userKey{}).(string)
	return v, ok && v != ""
}

// WithData returns a context carrying an additional key/value pair for
// captured messages. Pairs accumulate in the order they were added.
func WithData(ctx context.Context, key, value string) context.Context {
	prev := DataFromContext(ctx)
	items := make([]Item, len(prev), len(prev)+1)
	copy(items, prev)
	items = append(items, Item{Key: key, Value: value})
	return context.WithValue(ctx, dataKey{}, items)
}

// DataFromContext returns the pairs attached with WithData.
func DataFromContext(ctx context.Context) []Item {
	items, _ := ctx.Value(dataKey{}).([]Item)
	return items
}
