package xmonitor

import (
	"net/url"
	"strings"

	"intel-feed/models"
	"intel-feed/normalize"
)

// Produkt-getunte Schwellen der Interaktions-Tiers; nicht herleiten, nur pflegen.
const (
	tierHighEngagement   = 1200
	tierMediumEngagement = 300
)

const (
	actionHigh   = "高互动推文，建议加入重点观察名单。"
	actionMedium = "中等互动推文，可纳入日内情绪跟踪。"
	actionLow    = "低互动推文，建议结合更多信号再判断。"
)

// EngagementScore gewichtet Likes einfach und Retweets/Replies doppelt.
func EngagementScore(likes, retweets, replies int) int {
	return likes + retweets*2 + replies*2
}

// ActionForEngagement ordnet den Score einem der drei Tiers zu.
func ActionForEngagement(engagement int) string {
	switch {
	case engagement >= tierHighEngagement:
		return actionHigh
	case engagement >= tierMediumEngagement:
		return actionMedium
	default:
		return actionLow
	}
}

// Normalize bildet einen rohen Tweet auf das kanonische Content-Item ab.
func Normalize(raw Row) models.ContentItem {
	text := normalize.SafeText(raw.Text)
	username := strings.TrimLeft(normalize.SafeText(firstNonEmpty(raw.UserScreenName, raw.ScreenName, raw.Username)), "@")
	tweetID := normalize.SafeText(raw.ID)
	createdAt := normalize.ToIsoDateTime(raw.CreatedAt)

	likes := normalize.ToNonNegativeInt(raw.FavoriteCount)
	retweets := normalize.ToNonNegativeInt(raw.RetweetCount)
	replies := normalize.ToNonNegativeInt(raw.ReplyCount)

	tags := []string{"X监控"}
	for _, hashtag := range raw.Hashtags {
		tag := strings.TrimPrefix(normalize.SafeText(hashtag), "#")
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	tags = normalize.Unique(tags)
	if len(tags) > 8 {
		tags = tags[:8]
	}

	display := username
	if display == "" {
		display = "unknown"
	}

	sourceName := "X"
	if username != "" {
		sourceName = "@" + username
	}

	return models.ContentItem{
		Title:           "@" + display + " · X监控",
		TitleOriginal:   "@" + display + " · X monitor",
		TitleZh:         "@" + display + " · X监控",
		Summary:         text,
		SummaryOriginal: text,
		SummaryZh:       text,
		HasTranslation:  false,
		Platform:        "X/Twitter",
		Region:          "全球社媒",
		IndustryStage:   "中游",
		ContentTags:     tags,
		Date:            normalize.ToDateOnly(createdAt),
		Action:          ActionForEngagement(EngagementScore(likes, retweets, replies)),
		SourceURL:       tweetURL(raw, username, tweetID),
		SourceName:      sourceName,
		PublishedAt:     createdAt,
		Metrics: &models.Metrics{
			Likes:    likes,
			Retweets: retweets,
			Replies:  replies,
		},
	}
}

// tweetURL nimmt den ersten eingebetteten Link, sonst die kanonische Status-URL.
func tweetURL(raw Row, username, tweetID string) string {
	if len(raw.Urls) > 0 {
		first := raw.Urls[0]
		candidate := ""
		if asMap, ok := first.(map[string]any); ok {
			candidate = normalize.SafeText(asMap["url"])
		} else {
			candidate = normalize.SafeText(first)
		}
		if validated := normalize.SafeHttpUrl(candidate); validated != "" {
			return validated
		}
	}
	if username != "" && tweetID != "" {
		return "https://x.com/" + url.PathEscape(username) + "/status/" + url.PathEscape(tweetID)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
