package xhsfeed

import (
	"net/url"
	"regexp"
	"strings"

	"intel-feed/models"
	"intel-feed/normalize"
)

const (
	headlinePlaceholder = "小红书内容更新"
	defaultAction       = "观察评论区与收藏趋势，提炼真实用户需求。"
	profileBase         = "https://www.xiaohongshu.com"
)

// Kandidaten-Keys pro logischem Feld, first-match-wins. Die Reihenfolge ist
// Teil des Vertrags mit den wechselnden Export-Formaten des Feeds.
var (
	titleKeys      = []string{"title", "titleZh", "noteTitle", "note_title", "content", "summary"}
	summaryKeys    = []string{"summary", "desc", "description", "content", "title"}
	sourceNameKeys = []string{"sourceName", "author", "nickname", "user"}
	noteIDKeys     = []string{"noteId", "note_id", "id"}
	sourceURLKeys  = []string{"sourceUrl", "url", "link", "noteUrl", "note_url"}
	publishedKeys  = []string{"publishedAt", "publishTime", "date", "time"}
	tagKeys        = []string{"contentTags", "tags", "topics"}
)

// Freitext-Tags trennen an Whitespace, Komma und Fullwidth-Komma.
var tagSeparator = regexp.MustCompile(`[\s,，]+`)

// Normalize bildet einen rohen Feed-Eintrag auf das kanonische Content-Item
// ab. Die Eingabe ist eine ungetypte Map, weil der Feed je nach Export-Tool
// unterschiedliche Key-Namen pro Feld verwendet.
func Normalize(raw map[string]any) models.ContentItem {
	title := normalize.Headline(firstText(raw, titleKeys), headlinePlaceholder)
	summary := firstText(raw, summaryKeys)

	sourceName := firstText(raw, sourceNameKeys)
	if sourceName == "" {
		sourceName = "小红书"
	}

	sourceURL := normalize.SafeHttpUrl(firstText(raw, sourceURLKeys))
	if sourceURL == "" {
		if noteID := firstText(raw, noteIDKeys); noteID != "" {
			sourceURL = profileBase + "/explore/" + url.PathEscape(noteID)
		} else {
			sourceURL = profileBase
		}
	}

	publishedAt := normalize.ToIsoDateTime(firstValue(raw, publishedKeys))

	tags := parseTags(firstValue(raw, tagKeys))
	if len(tags) == 0 {
		tags = []string{"小红书"}
	}

	return models.ContentItem{
		Title:           title,
		TitleOriginal:   title,
		TitleZh:         title,
		Summary:         summary,
		SummaryOriginal: summary,
		SummaryZh:       summary,
		HasTranslation:  false,
		Platform:        "小红书",
		Region:          "中文社媒",
		IndustryStage:   "下游",
		ContentTags:     tags,
		Date:            normalize.ToDateOnly(publishedAt),
		Action:          defaultAction,
		SourceURL:       sourceURL,
		SourceName:      sourceName,
		PublishedAt:     publishedAt,
	}
}

// parseTags akzeptiert Tag-Listen und Freitext-Strings gleichermaßen.
func parseTags(input any) []string {
	var candidates []string

	switch v := input.(type) {
	case []any:
		for _, tag := range v {
			candidates = append(candidates, normalize.CollapseText(tag))
		}
	case []string:
		candidates = append(candidates, v...)
	default:
		candidates = tagSeparator.Split(normalize.SafeText(input), -1)
	}

	var tags []string
	for _, tag := range candidates {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	tags = normalize.Unique(tags)
	if len(tags) > 8 {
		tags = tags[:8]
	}
	return tags
}

// firstText wertet die Kandidaten-Keys in Reihenfolge aus, first-match-wins.
func firstText(raw map[string]any, keys []string) string {
	for _, key := range keys {
		if text := normalize.CollapseText(raw[key]); text != "" {
			return text
		}
	}
	return ""
}

func firstValue(raw map[string]any, keys []string) any {
	for _, key := range keys {
		if value, ok := raw[key]; ok && value != nil {
			if text, isString := value.(string); isString && strings.TrimSpace(text) == "" {
				continue
			}
			return value
		}
	}
	return nil
}
