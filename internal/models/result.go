package models

// Origin tells where a gatherer result came from.
type Origin string

const (
	OriginLive    Origin = "live"    // fetched from the external API just now
	OriginCache   Origin = "cache"   // served from the time-expiring cache
	OriginDefault Origin = "default" // the external call failed; Value is the empty default
)

// Result is what every gatherer returns. A failed external call collapses
// into an explicit OriginDefault variant instead of an error.
type Result[T any] struct {
	Value  T
	Origin Origin
	Err    error // set only for OriginDefault
}

// Live wraps freshly fetched data.
func Live[T any](v T) Result[T] { return Result[T]{Value: v, Origin: OriginLive} }

// Cached wraps data served from the cache.
func Cached[T any](v T) Result[T] { return Result[T]{Value: v, Origin: OriginCache} }

// Fallback wraps the default value returned after a failure.
func Fallback[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Origin: OriginDefault, Err: err}
}

// Ok is false only for the failure-to-default variant.
func (r Result[T]) Ok() bool { return r.Origin != OriginDefault }
