package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// playerSelector finds elements whose onclick handler loads the player iframe.
const playerSelector = `[onclick*="player_iframe.location.href"]`

var playerPattern = regexp.MustCompile(`player_iframe\.location\.href\s*=\s*'(.*?)'`)

// parsePlayerLink returns the player URL carried by the first matching
// onclick handler, or "" when the page has none.
func parsePlayerLink(doc *goquery.Document) string {
	onclick, ok := doc.Find(playerSelector).First().Attr("onclick")
	if !ok {
		return ""
	}
	m := playerPattern.FindStringSubmatch(onclick)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// resolveRef makes a relative player link absolute against the source page.
// Links that are already http(s) are returned untouched.
func resolveRef(source, ref string) string {
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return ref
	}
	base, err := url.Parse(source)
	if err != nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}
