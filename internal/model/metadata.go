package model

const (
	// SentinelTitle is used when no title could be fetched
	SentinelTitle = "untitled"
	// SentinelDescription is used when no description could be fetched
	SentinelDescription = "no description"
)

// SentinelMetadata marks a URL whose metadata could not be fetched
var SentinelMetadata = Metadata{Title: SentinelTitle, Description: SentinelDescription}

// Metadata holds the lightweight page information used for classification
type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// IsSentinel returns true if both fields carry the placeholder values
func (m Metadata) IsSentinel() bool {
	return m.Title == SentinelTitle && m.Description == SentinelDescription
}

// HasTitle returns true if a real title was found
func (m Metadata) HasTitle() bool {
	return m.Title != "" && m.Title != SentinelTitle
}
