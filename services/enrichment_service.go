package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/Gwen-Z/personal-website-ai-sub002/config"
	"github.com/Gwen-Z/personal-website-ai-sub002/models"
)

// EnrichmentService 调用豆包对单条日记做结构化提取
type EnrichmentService struct {
	client    *DoubaoClient
	maxTokens int
}

func NewEnrichmentService(client *DoubaoClient, maxTokens int) *EnrichmentService {
	return &EnrichmentService{
		client:    client,
		maxTokens: maxTokens,
	}
}

// ModelName 返回落库用的模型标识
func (s *EnrichmentService) ModelName() string {
	if s.client == nil {
		return ""
	}
	return s.client.Model
}

// Enrich 对一条原始日记做一次模型调用，返回结构化提取结果
//
// 提示词中嵌入了评分规则，模型自报的mood_score由同一套规则引导，
// 但调用方落库时仍会用规则评分覆盖它。
// 接口失败返回*UpstreamError，返回内容解析失败返回*MalformedResponseError，
// 均由调用方按单条隔离，不会中断整个批次。
func (s *EnrichmentService) Enrich(ctx context.Context, entry models.RawEntry, rubric models.Rubric) (*models.AIResult, error) {
	messages := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildEnrichmentPrompt(rubric))},
		},
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(formatRawEntry(entry))},
		},
	}

	options := []llms.CallOption{
		llms.WithTemperature(0.2),
	}
	if s.maxTokens > 0 {
		options = append(options, llms.WithMaxTokens(s.maxTokens))
	}

	response, err := s.client.Chat.GenerateContent(ctx, messages, options...)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}

	if len(response.Choices) == 0 {
		return nil, &MalformedResponseError{Err: fmt.Errorf("未生成有效内容")}
	}

	content := stripJSONFence(response.Choices[0].Content)

	var result models.AIResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		config.Logger.Warnw("模型返回内容解析失败",
			"rawEntryID", entry.ID,
			"content", content,
			"error", err,
		)
		return nil, &MalformedResponseError{Raw: content, Err: err}
	}

	return &result, nil
}

// FallbackAIResult 模型不可用时的中性兜底结果
// 文本字段留空，聚合时"空值不覆盖"的合并策略会保留已有数据。
func FallbackAIResult() *models.AIResult {
	return &models.AIResult{
		MoodScore:        3,
		LifeScore:        3,
		StudyScore:       3,
		WorkScore:        3,
		InspirationScore: 3,
	}
}

// buildEnrichmentPrompt 构造系统提示词，嵌入当前评分规则
func buildEnrichmentPrompt(rubric models.Rubric) string {
	scale, _ := json.Marshal(rubric.ScoreScale)
	keywords, _ := json.Marshal(rubric.KeywordWeights)
	emojiTable, _ := json.Marshal(rubric.EmojiByScore)
	categoryTable, _ := json.Marshal(rubric.CategoryByScore)

	return fmt.Sprintf(`你是一个日记结构化助手，负责把一天的日记内容提取成固定格式的JSON。

严格只输出一个JSON对象，不要输出任何解释文字，不要使用markdown代码块包裹。

字段说明：
- mood_score: 心情评分（整数），必须按下面的评分规则计算
- mood_description: 心情的简短描述（不超过30字）
- life_score: 健身/生活维度评分（0-5整数）
- study_score: 学习维度评分（0-5整数）
- work_score: 工作维度评分（0-5整数）
- inspiration_score: 灵感维度评分（0-5整数，衡量灵感的价值和可行性）
- summary: 全天内容的总结（不超过100字）
- inspiration_theme: 灵感主题（不超过20字，没有灵感内容时留空字符串）
- inspiration_product: 灵感可以落地的产品形态（不超过20字，没有时留空字符串）
- inspiration_difficulty: 灵感实现难度，只能是"高"、"中"、"低"或空字符串

心情评分规则（mood_score必须按此计算）：
- 评分区间: %s
- 关键词权重（命中一个关键词加一次对应权重，结果裁剪到评分区间）: %s
- 分数对应emoji: %s
- 分数对应分类: %s
- 补充说明: %s

完整输出示例：
{
	"mood_score": 2,
	"mood_description": "整体愉快，略有压力",
	"life_score": 4,
	"study_score": 3,
	"work_score": 4,
	"inspiration_score": 2,
	"summary": "白天完成了项目联调，晚上跑步五公里，睡前记录了一个小程序的想法",
	"inspiration_theme": "习惯打卡小程序",
	"inspiration_product": "微信小程序",
	"inspiration_difficulty": "中"
}`, scale, keywords, emojiTable, categoryTable, rubric.ScoringRule)
}

// formatRawEntry 把原始日记拼成用户消息
func formatRawEntry(entry models.RawEntry) string {
	return fmt.Sprintf(`日期: %s
心情: %s
健身/生活: %s
学习: %s
工作: %s
灵感: %s`, entry.Date, entry.Mood, entry.Life, entry.Study, entry.Work, entry.Inspiration)
}

// stripJSONFence 去掉模型返回内容外层的markdown代码围栏
func stripJSONFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
