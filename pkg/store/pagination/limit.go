package pagination

// Limit returns a pointer to n, for option structs that distinguish an
// unset limit from an explicit one.
func Limit(n int) *int { return &n }

// Resolve applies def when limit is unset. The second result is false when
// the effective limit is unbounded (<= 0).
func Resolve(limit *int, def int) (int, bool) {
	n := def
	if limit != nil {
		n = *limit
	}
	if n <= 0 {
		return 0, false
	}
	return n, true
}
