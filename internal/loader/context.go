package loader

import "context"

// loaderContextKey is a private type so this package's context key can
// never collide with one set by another package, the same defensive
// pattern wayli-app-fluxbase uses for its request-scoped RLS context.
type loaderContextKey string

const requestLoaderKey loaderContextKey = "loader.request"

// WithLoader attaches l to ctx for the lifetime of one GraphQL request.
func WithLoader(ctx context.Context, l *Loader) context.Context {
	return context.WithValue(ctx, requestLoaderKey, l)
}

// FromContext returns the Loader attached by WithLoader, if any. Absent a
// request-scoped loader, callers fall back to one-off, unbatched queries.
func FromContext(ctx context.Context) (*Loader, bool) {
	l, ok := ctx.Value(requestLoaderKey).(*Loader)
	return l, ok
}
