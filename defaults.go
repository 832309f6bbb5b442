package rescache

// coalesce picks def when v is T's zero value.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
