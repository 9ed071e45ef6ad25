package common

const (
	// FeedAuthorName is the feed-level author. Entries carry no author so that
	// readers do not repeat the poster's name above the body.
	FeedAuthorName = "Stream Spigot : Masto Feeder"

	DefaultTimeZone = "America/Los_Angeles"

	UserLinkColor = "#1d9bf0"
)
