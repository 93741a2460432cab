package extract

// ErrorCode defines error types for extraction.
type ErrorCode string

const (
	// ErrSourceFetch is a transport failure on the source page. It is retried.
	ErrSourceFetch ErrorCode = "SourceFetchError"
	// ErrPlayerFetch is a transport failure on the player page. It is logged only.
	ErrPlayerFetch ErrorCode = "PlayerFetchError"
	// ErrInvalidURL rejects input before any network activity.
	ErrInvalidURL ErrorCode = "InvalidURL"
)
