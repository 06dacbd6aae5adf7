package pagination

const (
	// DefaultLimit is the number of messages LoadMessages returns when no limit is given
	DefaultLimit = 50

	// DefaultSearchLimit caps search results when no limit is given
	DefaultSearchLimit = 20

	// MaxLimit bounds limits accepted from the HTTP API
	MaxLimit = 1000
)
