package douyin

// detailResponse is the content API's detail payload, reduced to the
// fields the classifier reads
type detailResponse struct {
	Data aweme `json:"data"`
}

type aweme struct {
	AwemeID   string         `json:"aweme_id"`
	Desc      string         `json:"desc"`
	MediaType int            `json:"media_type"`
	Images    []galleryEntry `json:"images"`
	Video     *videoInfo     `json:"video"`
}

// galleryEntry is one item of an image post. An entry that carries a
// playable video sub-object is a video segment, not an image.
type galleryEntry struct {
	URLList []string      `json:"url_list"`
	Video   *segmentVideo `json:"video"`
}

type segmentVideo struct {
	PlayAddr     *playAddr `json:"play_addr"`
	PlayAddrH264 *playAddr `json:"play_addr_h264"`
}

type videoInfo struct {
	PlayAddr *playAddr `json:"play_addr"`
}

// playAddr is a quality-tiered list of playback URLs for one rendition
type playAddr struct {
	URLList []string `json:"url_list"`
}

// Media type codes the detail API emits
const (
	mediaTypeImage        = 2
	mediaTypeVideo        = 4
	mediaTypeSegmentVideo = 42
)

// preferredPlayIndex selects the quality tier used for video downloads
// when the play-address list carries enough entries
const preferredPlayIndex = 2
