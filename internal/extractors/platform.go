package extractors

import (
	"regexp"
	"strings"
)

type Platform string

const (
	Twitter   Platform = "twitter"
	Reddit    Platform = "reddit"
	Instagram Platform = "instagram"
	Threads   Platform = "threads"
	Facebook  Platform = "facebook"
)

// platformOrder is the detection order.
var platformOrder = []Platform{Twitter, Reddit, Instagram, Threads, Facebook}

var platformPatterns = map[Platform][]*regexp.Regexp{
	Twitter: {
		regexp.MustCompile(`(?i)^https?://(?:www\.)?twitter\.com/\w+/status/(\d+)`),
		regexp.MustCompile(`(?i)^https?://(?:www\.)?x\.com/\w+/status/(\d+)`),
	},
	Reddit: {
		regexp.MustCompile(`(?i)^https?://(?:www\.)?reddit\.com/r/(\w+)/comments/(\w+)/([^/]+)/?`),
	},
	Instagram: {
		regexp.MustCompile(`(?i)^https?://(?:www\.)?instagram\.com/(?:p|reel|tv)/([A-Za-z0-9_-]+)/?`),
	},
	Threads: {
		regexp.MustCompile(`(?i)^https?://(?:www\.)?threads\.(?:net|com)/@[\w.]+/post/([A-Za-z0-9_-]+)/?`),
	},
	Facebook: {
		regexp.MustCompile(`(?i)^https?://(?:www\.)?facebook\.com/[\w.]+/posts/(\d+)`),
		regexp.MustCompile(`(?i)^https?://(?:www\.)?facebook\.com/permalink\.php\?story_fbid=(\d+)`),
		regexp.MustCompile(`(?i)^https?://(?:www\.)?facebook\.com/\d+/posts/(\d+)`),
	},
}

// DetectPlatform returns the platform whose URL pattern matches the start
// of rawURL.
func DetectPlatform(rawURL string) (Platform, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", false
	}
	for _, p := range platformOrder {
		for _, re := range platformPatterns[p] {
			if re.MatchString(rawURL) {
				return p, true
			}
		}
	}
	return "", false
}

// SupportedPlatforms lists the platform tags in detection order.
func SupportedPlatforms() []string {
	out := make([]string, 0, len(platformOrder))
	for _, p := range platformOrder {
		out = append(out, string(p))
	}
	return out
}

// DisplayName is the name used in API responses.
func (p Platform) DisplayName() string {
	switch p {
	case Twitter:
		return "Twitter"
	case Reddit:
		return "Reddit"
	case Instagram:
		return "Instagram"
	case Threads:
		return "Threads"
	case Facebook:
		return "Facebook"
	}
	return "Unknown"
}

// matchGroups returns the submatches of the first pattern of p that matches.
func matchGroups(p Platform, rawURL string) []string {
	for _, re := range platformPatterns[p] {
		if m := re.FindStringSubmatch(strings.TrimSpace(rawURL)); m != nil {
			return m
		}
	}
	return nil
}
