package models

import "time"

// SimpleRecord 按日期聚合的记录，供图表展示使用，每个日期至多一行
// 文本字段采用"新值为空则保留旧值"的合并策略，重跑批处理不会清空已有数据。
type SimpleRecord struct {
	ID                    int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Date                  string    `gorm:"type:varchar(10);uniqueIndex:uk_simple_date" json:"date"`
	MoodScore             int       `json:"mood_score"`
	MoodEmoji             string    `gorm:"type:varchar(16)" json:"mood_emoji"`
	MoodCategory          string    `gorm:"type:varchar(20)" json:"mood_category"`
	MoodDescription       string    `gorm:"type:varchar(100)" json:"mood_description"`
	LifeScore             int       `json:"life_score"`
	StudyScore            int       `json:"study_score"`
	WorkScore             int       `json:"work_score"`
	InspirationScore      int       `json:"inspiration_score"`
	Summary               string    `gorm:"type:text" json:"summary"`
	InspirationTheme      string    `gorm:"type:varchar(100)" json:"inspiration_theme"`
	InspirationProduct    string    `gorm:"type:varchar(100)" json:"inspiration_product"`
	InspirationDifficulty string    `gorm:"type:varchar(20)" json:"inspiration_difficulty"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (SimpleRecord) TableName() string {
	return "simple_records"
}
