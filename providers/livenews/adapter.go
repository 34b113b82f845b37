package livenews

import (
	"net/url"
	"strings"

	"intel-feed/models"
	"intel-feed/normalize"
)

const (
	defaultStage  = "中游"
	defaultAction = "先看政策和数据，再做动作判断。"
)

// topicStages ordnet die Nachrichtenthemen einer Wertschöpfungsstufe zu.
var topicStages = map[string]string{
	"电商":   "下游",
	"国家政策": "上游",
	"经济":   "上游",
	"科技":   "中游",
	"互联网":  "中游",
}

// topicActions ist die feste Thema→Empfehlung-Tabelle.
var topicActions = map[string]string{
	"电商":   "关注平台规则、商家成本与用户转化变化。",
	"国家政策": "重点标记政策发布日期与执行范围。",
	"经济":   "关注宏观数据与市场预期偏差。",
	"科技":   "跟踪技术节点与产业化进展。",
	"互联网":  "观察平台产品节奏与商业模式变化。",
}

// Normalize bildet einen RSS-Eintrag auf das kanonische Content-Item ab.
func Normalize(item rssItem, topic string) models.ContentItem {
	publishedAt := normalize.ToIsoDateTime(item.PubDate)
	sourceURL := normalize.SafeHttpUrl(item.Link)

	summary := item.Description
	if summary == "" {
		summary = item.Title
	}

	sourceName := item.Source
	if sourceName == "" {
		sourceName = hostnameOf(sourceURL)
	}
	if sourceName == "" {
		sourceName = "Google News"
	}

	stage, ok := topicStages[topic]
	if !ok {
		stage = defaultStage
	}
	action, ok := topicActions[topic]
	if !ok {
		action = defaultAction
	}

	return models.ContentItem{
		Title:           item.Title,
		TitleOriginal:   item.Title,
		TitleZh:         item.Title,
		Summary:         summary,
		SummaryOriginal: summary,
		SummaryZh:       summary,
		HasTranslation:  false,
		Platform:        sourceName,
		Region:          "全球资讯",
		IndustryStage:   stage,
		ContentTags:     normalize.Unique([]string{"实时新闻", topic}),
		Date:            normalize.ToDateOnly(publishedAt),
		Action:          action,
		SourceURL:       sourceURL,
		SourceName:      sourceName,
		PublishedAt:     publishedAt,
	}
}

// hostnameOf leitet den Quellennamen aus dem Hostnamen ab, wenn der Feed
// kein <source>-Tag mitliefert.
func hostnameOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}
