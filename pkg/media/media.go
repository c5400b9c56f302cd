// Package media defines the provider-independent result record every
// provider normalizes into.
package media

// Type classifies a resolved share link's content
type Type string

const (
	TypeImage Type = "image"
	TypeVideo Type = "video"
)

// Item is the normalized description of a share link's downloadable
// content, independent of which provider produced it.
type Item struct {
	// Type is image or video. Galleries that carry at least one playable
	// video segment are classified as video.
	Type Type

	// IsMultiPart is true for image galleries with more than one entry
	// and for segmented video containers.
	IsMultiPart bool

	// Count always equals len(DownloadLinks)
	Count int

	// DownloadLinks lists direct media URLs in source order
	DownloadLinks []string

	// Title identifies the content; used to derive download paths
	Title string

	// Sizes holds per-link content lengths in bytes when the provider
	// reported them via header probes; nil otherwise
	Sizes []int64

	// CoverURL is an optional preview image for video results
	CoverURL string
}

// TotalSize sums the probed per-link sizes. Zero when sizes are unknown.
func (i *Item) TotalSize() int64 {
	var total int64
	for _, s := range i.Sizes {
		total += s
	}
	return total
}
