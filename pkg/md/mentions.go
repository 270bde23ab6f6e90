package md

import (
	"net/url"
	"sort"
	"strings"
)

// profileURLs maps a platform name to its profile URL pattern; %s receives
// the escaped username.
var profileURLs = map[string]string{
	"github":    "https://github.com/%s",
	"gitlab":    "https://gitlab.com/%s",
	"bitbucket": "https://bitbucket.org/%s",
	"codeberg":  "https://codeberg.org/%s",

	"twitter":    "https://twitter.com/%s",
	"x":          "https://x.com/%s",
	"reddit":     "https://www.reddit.com/user/%s",
	"instagram":  "https://www.instagram.com/%s/",
	"tiktok":     "https://www.tiktok.com/@%s",
	"youtube":    "https://www.youtube.com/@%s",
	"linkedin":   "https://www.linkedin.com/in/%s",
	"facebook":   "https://www.facebook.com/%s",
	"threads":    "https://www.threads.net/@%s",
	"twitch":     "https://www.twitch.tv/%s",
	"soundcloud": "https://soundcloud.com/%s",
	"telegram":   "https://t.me/%s",
	"vk":         "https://vk.com/%s",
	"medium":     "https://medium.com/@%s",
	"tumblr":     "https://www.tumblr.com/%s",
	"dribbble":   "https://dribbble.com/%s",
	"bluesky":    "https://bsky.app/profile/%s",
	"bsky":       "https://bsky.app/profile/%s",
	"mastodon":   "https://mastodon.social/@%s",
	"pixelfed":   "https://pixelfed.social/%s",
	"discord":    "https://discord.com/users/%s",
}

// ProfileURL returns the profile link for user on platform, or false when the
// platform is not known.
func ProfileURL(platform, user string) (string, bool) {
	pattern, ok := profileURLs[strings.ToLower(strings.TrimSpace(platform))]
	user = strings.TrimSpace(user)
	if !ok || user == "" {
		return "", false
	}
	return strings.Replace(pattern, "%s", url.PathEscape(user), 1), true
}

// Platforms returns the known mention platforms in sorted order.
func Platforms() []string {
	out := make([]string, 0, len(profileURLs))
	for name := range profileURLs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
