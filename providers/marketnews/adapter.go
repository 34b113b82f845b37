package marketnews

import (
	"strings"

	"intel-feed/models"
	"intel-feed/normalize"
)

const (
	headlinePlaceholder = "市场情报更新"
	defaultAction       = "关注关键信息并结合风控执行。"
	defaultStage        = "中游"
	maxContentTags      = 8
)

// signalActions ist die feste Signal→Empfehlung-Tabelle.
var signalActions = map[string]string{
	"long":    "信号偏多，建议结合量价与仓位风控跟踪。",
	"short":   "信号偏空，建议收缩风险敞口并设置止损。",
	"neutral": "信号中性，建议等待下一次确认信号。",
}

// engineStages ordnet den Engine-Typ einer Wertschöpfungsstufe zu.
var engineStages = map[string]string{
	"onchain": "上游",
	"market":  "上游",
	"news":    "中游",
	"meme":    "中游",
	"listing": "下游",
}

// Normalize bildet einen rohen Market-Intel-Datensatz auf das kanonische
// Content-Item ab. Die Funktion ist pur und wirft nie.
func Normalize(raw Row) models.ContentItem {
	text := normalize.SafeText(raw.Text)
	title := normalize.Headline(text, headlinePlaceholder)

	var coins []string
	for _, coin := range raw.Coins {
		symbol := strings.ToUpper(normalize.SafeText(firstNonEmpty(coin.Symbol, coin.Coin, coin.Name)))
		if symbol != "" {
			coins = append(coins, symbol)
		}
	}
	coins = normalize.Unique(coins)

	signal := strings.ToLower(normalize.SafeText(raw.AiRating.Signal))
	summaryZh := normalize.SafeText(raw.AiRating.Summary)
	summaryEn := normalize.SafeText(raw.AiRating.EnSummary)
	published := normalize.ToIsoDateTime(raw.Ts)

	tags := append([]string{
		normalize.SafeText(raw.EngineType),
		normalize.SafeText(raw.NewsType),
	}, coins...)
	if signal != "" {
		tags = append(tags, "signal:"+signal)
	}
	tags = normalize.Unique(tags)
	if len(tags) > maxContentTags {
		tags = tags[:maxContentTags]
	}

	action, ok := signalActions[signal]
	if !ok {
		action = defaultAction
	}

	stage, ok := engineStages[strings.ToLower(normalize.SafeText(raw.EngineType))]
	if !ok {
		stage = defaultStage
	}

	return models.ContentItem{
		Title:           title,
		TitleOriginal:   title,
		TitleZh:         title,
		Summary:         firstNonEmpty(summaryZh, summaryEn, text),
		SummaryOriginal: firstNonEmpty(summaryEn, text),
		SummaryZh:       firstNonEmpty(summaryZh, text),
		HasTranslation:  summaryZh != "" && summaryEn != "" && summaryZh != summaryEn,
		Platform:        firstNonEmpty(normalize.SafeText(raw.NewsType), normalize.SafeText(raw.EngineType), "6551 新闻"),
		Region:          "全球市场",
		IndustryStage:   stage,
		ContentTags:     tags,
		Date:            normalize.ToDateOnly(published),
		Action:          action,
		SourceURL:       normalize.SafeHttpUrl(raw.Link),
		SourceName:      firstNonEmpty(normalize.SafeText(raw.NewsType), normalize.SafeText(raw.EngineType), "6551"),
		PublishedAt:     published,
		AiScore:         normalize.ToFloat(raw.AiRating.Score),
		Signal:          signal,
		Coins:           coins,
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
