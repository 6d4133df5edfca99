package services

import (
	"strings"

	"github.com/Gwen-Z/personal-website-ai-sub002/models"
)

// MoodScore 规则评分结果
type MoodScore struct {
	Score    int    `json:"score"`
	Emoji    string `json:"emoji"`
	Category string `json:"category"`
}

// ScoreMood 对心情文本做确定性评分
//
// 纯函数：相同的(文本, 规则)必然得到相同结果，任何输入都不会失败。
// 关键词按大小写敏感的子串匹配，同一关键词出现多次只计一次权重，
// 命中的关键词之间也不去重——可预测、可审计优先于语言学上的精确。
func ScoreMood(text string, rubric models.Rubric) MoodScore {
	total := 0
	for _, kw := range rubric.KeywordWeights.Positive {
		if strings.Contains(text, kw.Keyword) {
			total += kw.Weight
		}
	}
	for _, kw := range rubric.KeywordWeights.Negative {
		if strings.Contains(text, kw.Keyword) {
			total += kw.Weight
		}
	}

	// 裁剪到评分区间
	if min := rubric.MinScore(); total < min {
		total = min
	}
	if max := rubric.MaxScore(); total > max {
		total = max
	}

	return MoodScore{
		Score:    total,
		Emoji:    rubric.EmojiFor(total),
		Category: rubric.CategoryFor(total),
	}
}
