package livenews

import (
	"regexp"
	"strings"
)

// rssItem ist ein roher <item>-Block aus einem RSS-Feed.
type rssItem struct {
	Title       string
	Link        string
	PubDate     string
	Description string
	Source      string
}

var (
	itemPattern = regexp.MustCompile(`(?is)<item\b.*?</item>`)
	tagPattern  = regexp.MustCompile(`<[^>]+>`)
	cdata       = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)

	titleTag       = tagExtractor("title")
	linkTag        = tagExtractor("link")
	pubDateTag     = tagExtractor("pubDate")
	descriptionTag = tagExtractor("description")
	sourceTag      = tagExtractor("source")
)

func tagExtractor(tag string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)<` + tag + `[^>]*>(.*?)</` + tag + `>`)
}

// parseRssItems extrahiert die <item>-Blöcke per Tag-Extraktion aus dem
// rohen Feed-Text. Ein vollwertiger XML-Parser ist hier absichtlich nicht im
// Spiel: Google-News-Feeds enthalten regelmäßig kaputte Entities.
func parseRssItems(xml string) []rssItem {
	blocks := itemPattern.FindAllString(xml, -1)
	items := make([]rssItem, 0, len(blocks))
	for _, block := range blocks {
		// Erst Entities dekodieren, dann Tags strippen: escapte Markup-Reste
		// wie &lt;b&gt; sollen ebenfalls verschwinden.
		title := stripTags(decodeEntities(extractTag(titleTag, block)))
		if title == "" {
			title = "实时资讯"
		}
		items = append(items, rssItem{
			Title:       title,
			Link:        stripTags(decodeEntities(extractTag(linkTag, block))),
			PubDate:     stripTags(decodeEntities(extractTag(pubDateTag, block))),
			Description: stripTags(decodeEntities(extractTag(descriptionTag, block))),
			Source:      stripTags(decodeEntities(extractTag(sourceTag, block))),
		})
	}
	return items
}

func extractTag(pattern *regexp.Regexp, block string) string {
	match := pattern.FindStringSubmatch(block)
	if match == nil {
		return ""
	}
	return match[1]
}

func stripTags(value string) string {
	stripped := tagPattern.ReplaceAllString(cdata.ReplaceAllString(value, "$1"), " ")
	return strings.Join(strings.Fields(stripped), " ")
}

// decodeEntities dekodiert den festen Satz benannter Entities der Feeds.
func decodeEntities(value string) string {
	replacer := strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", `"`,
		"&#39;", "'",
	)
	return strings.TrimSpace(replacer.Replace(value))
}
