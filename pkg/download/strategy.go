package download

// Strategy is a named bundle of HTTP headers impersonating a particular
// client class. Origin servers throttle by fingerprint; rotating the
// fingerprint is usually enough to get through.
type Strategy struct {
	// Name identifies the strategy in outcomes and logs
	Name string
	// Headers is the full header set sent with the request
	Headers map[string]string
	// AllowCookie marks strategies compatible with browser-style
	// identity. App and crawler impersonations must never carry the
	// browser cookie: it is the wrong auth channel for those clients
	// and correlates the requests server-side.
	AllowCookie bool
}

// imageStrategies is the ordered rotation for image downloads.
// Attempt i uses imageStrategies[i % len(imageStrategies)].
var imageStrategies = []Strategy{
	{
		Name:        "desktop",
		AllowCookie: true,
		Headers: map[string]string{
			"Accept":             "image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8",
			"Accept-Language":    "zh-CN,zh;q=0.9,en;q=0.8",
			"Cache-Control":      "no-cache",
			"Connection":         "keep-alive",
			"DNT":                "1",
			"Pragma":             "no-cache",
			"Referer":            "https://www.douyin.com/",
			"Sec-Ch-Ua":          `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`,
			"Sec-Ch-Ua-Mobile":   "?0",
			"Sec-Ch-Ua-Platform": `"Windows"`,
			"Sec-Fetch-Dest":     "image",
			"Sec-Fetch-Mode":     "no-cors",
			"Sec-Fetch-Site":     "cross-site",
			"User-Agent":         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
	},
	{
		Name:        "iphone",
		AllowCookie: true,
		Headers: map[string]string{
			"Accept":          "image/webp,image/apng,image/*,*/*;q=0.8",
			"Accept-Language": "zh-CN,zh-Hans;q=0.9",
			"Connection":      "keep-alive",
			"Referer":         "https://www.douyin.com/",
			"Sec-Fetch-Dest":  "image",
			"Sec-Fetch-Mode":  "no-cors",
			"Sec-Fetch-Site":  "cross-site",
			"User-Agent":      "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
		},
	},
	{
		Name:        "android",
		AllowCookie: true,
		Headers: map[string]string{
			"Accept":          "image/webp,image/apng,image/*,*/*;q=0.8",
			"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
			"Connection":      "keep-alive",
			"Referer":         "https://www.douyin.com/",
			"User-Agent":      "Mozilla/5.0 (Linux; Android 13; SM-G981B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0.0.0 Mobile Safari/537.36",
		},
	},
	{
		Name:        "app",
		AllowCookie: false,
		Headers: map[string]string{
			"Accept":           "*/*",
			"Connection":       "keep-alive",
			"User-Agent":       "com.ss.android.ugc.aweme/180400 (Linux; U; Android 11; zh_CN; SM-G973F; Build/RP1A.200720.012; Cronet/TTNetVersion:36a9da4a 2021-11-26 QuicVersion:8d8b5b0e 2021-11-23)",
			"X-Requested-With": "com.ss.android.ugc.aweme",
		},
	},
	{
		Name:        "crawler",
		AllowCookie: false,
		Headers: map[string]string{
			"Accept":     "*/*",
			"User-Agent": "Mozilla/5.0 (compatible; Baiduspider/2.0; +http://www.baidu.com/search/spider.html)",
		},
	},
}

// videoHeaders is the fixed desktop header set for video fetches.
// Videos are served from CDN hosts that check the Referer against the
// content platform.
var videoHeaders = map[string]string{
	"Accept":          "*/*",
	"Accept-Language": "zh-CN,zh;q=0.8,zh-TW;q=0.7,zh-HK;q=0.5,en-US;q=0.3,en;q=0.2",
	"Connection":      "keep-alive",
	"Referer":         "https://www.douyin.com/",
	"Sec-Fetch-Dest":  "video",
	"Sec-Fetch-Mode":  "no-cors",
	"Sec-Fetch-Site":  "cross-site",
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// mobileVideoHeaders is the fallback identity for 403 responses. CDN
// blocking frequently relaxes for a different client class on the very
// next call.
var mobileVideoHeaders = map[string]string{
	"Accept":     "video/webm,video/ogg,video/*;q=0.9,application/ogg;q=0.7,audio/*;q=0.6,*/*;q=0.5",
	"Referer":    "https://www.douyin.com/",
	"User-Agent": "Mozilla/5.0 (iPhone; CPU iPhone OS 14_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0 Mobile/15E148 Safari/604.1",
}

// ImageStrategyCount reports how many identities the image rotation cycles through
func ImageStrategyCount() int {
	return len(imageStrategies)
}
