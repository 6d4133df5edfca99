package models

import (
	"encoding/json"
	"fmt"
)

// 评分表查不到时的兜底展示值
const (
	DefaultEmoji    = "😐"
	DefaultCategory = "中性"
)

// Rubric 评分规则配置，定义关键词权重和分数到展示值的映射
type Rubric struct {
	ScoreScale      []int             `json:"scoreScale"`
	EmojiByScore    map[string]string `json:"emojiByScore"`
	CategoryByScore map[string]string `json:"categoryByScore"`
	KeywordWeights  KeywordWeights    `json:"keywordWeights"`
	ScoringRule     string            `json:"scoringRule,omitempty"`
}

// KeywordWeights 正向/负向关键词列表
// 两个列表只是组织上的划分，权重本身带符号，正向列表里也允许出现负权重。
type KeywordWeights struct {
	Positive []KeywordWeight `json:"positive"`
	Negative []KeywordWeight `json:"negative"`
}

// KeywordWeight 关键词及其带符号权重，JSON中编码为 ["关键词", 权重] 二元组
type KeywordWeight struct {
	Keyword string
	Weight  int
}

func (kw KeywordWeight) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{kw.Keyword, kw.Weight})
}

func (kw *KeywordWeight) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("关键词权重必须是二元组，实际长度 %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &kw.Keyword); err != nil {
		return err
	}
	var number json.Number
	if err := json.Unmarshal(pair[1], &number); err != nil {
		return err
	}
	weight, err := number.Int64()
	if err != nil {
		return fmt.Errorf("关键词 %q 的权重必须是整数，实际为 %s", kw.Keyword, number)
	}
	kw.Weight = int(weight)
	return nil
}

// MinScore 评分区间下限，取scoreScale首个元素
func (r Rubric) MinScore() int {
	if len(r.ScoreScale) == 0 {
		return 0
	}
	return r.ScoreScale[0]
}

// MaxScore 评分区间上限，取scoreScale末个元素
func (r Rubric) MaxScore() int {
	if len(r.ScoreScale) == 0 {
		return 0
	}
	return r.ScoreScale[len(r.ScoreScale)-1]
}

// EmojiFor 按分数查emoji，查不到返回兜底值
func (r Rubric) EmojiFor(score int) string {
	if emoji, ok := r.EmojiByScore[fmt.Sprintf("%d", score)]; ok {
		return emoji
	}
	return DefaultEmoji
}

// CategoryFor 按分数查分类，查不到返回兜底值
func (r Rubric) CategoryFor(score int) string {
	if category, ok := r.CategoryByScore[fmt.Sprintf("%d", score)]; ok {
		return category
	}
	return DefaultCategory
}

// DefaultRubric 内置默认评分规则，配置文件缺失或损坏时使用
func DefaultRubric() Rubric {
	return Rubric{
		ScoreScale: []int{0, 1, 2, 3, 4, 5},
		EmojiByScore: map[string]string{
			"0": "😐",
			"1": "🙂",
			"2": "😊",
			"3": "😄",
			"4": "🥳",
			"5": "🤩",
		},
		CategoryByScore: map[string]string{
			"0": "中性",
			"1": "正向",
			"2": "正向",
			"3": "正向",
			"4": "非常正向",
			"5": "非常正向",
		},
		KeywordWeights: KeywordWeights{
			Positive: []KeywordWeight{
				{Keyword: "开心", Weight: 1},
				{Keyword: "兴奋", Weight: 2},
				{Keyword: "平静", Weight: 1},
				{Keyword: "充实", Weight: 1},
				{Keyword: "满足", Weight: 1},
				{Keyword: "期待", Weight: 1},
			},
			Negative: []KeywordWeight{
				{Keyword: "压力", Weight: -1},
				{Keyword: "焦虑", Weight: -2},
				{Keyword: "疲惫", Weight: -1},
				{Keyword: "烦躁", Weight: -1},
				{Keyword: "难过", Weight: -2},
				{Keyword: "失眠", Weight: -1},
			},
		},
		ScoringRule: "命中关键词则累加对应权重（每个关键词只计一次），结果裁剪到评分区间",
	}
}
