package models

// AIResult 模型对单条日记的结构化提取结果
// mood_score是模型自报的心情分，仅作参考，落库时一律被规则评分覆盖。
type AIResult struct {
	MoodScore             int    `json:"mood_score"`
	MoodDescription       string `json:"mood_description"`
	LifeScore             int    `json:"life_score"`
	StudyScore            int    `json:"study_score"`
	WorkScore             int    `json:"work_score"`
	InspirationScore      int    `json:"inspiration_score"`
	Summary               string `json:"summary"`
	InspirationTheme      string `json:"inspiration_theme"`
	InspirationProduct    string `json:"inspiration_product"`
	InspirationDifficulty string `json:"inspiration_difficulty"`
}
