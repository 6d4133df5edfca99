package models

import "time"

// ProcessedRecord AI处理结果，每条原始记录至多一行
// 心情分数/emoji/分类来自规则评分，文本字段和子维度分数来自模型输出。
type ProcessedRecord struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RawEntryID       int64     `gorm:"uniqueIndex:uk_processed_raw_entry" json:"raw_entry_id"`
	Date             string    `gorm:"type:varchar(10);index" json:"date"`
	MoodScore        int       `json:"mood_score"`
	MoodEmoji        string    `gorm:"type:varchar(16)" json:"mood_emoji"`
	MoodCategory     string    `gorm:"type:varchar(20)" json:"mood_category"`
	MoodDescription  string    `gorm:"type:varchar(100)" json:"mood_description"`
	LifeScore        int       `json:"life_score"`
	StudyScore       int       `json:"study_score"`
	WorkScore        int       `json:"work_score"`
	InspirationScore int       `json:"inspiration_score"`
	Summary          string    `gorm:"type:text" json:"summary"`
	AIModel          string    `gorm:"type:varchar(64)" json:"ai_model"`
	ProcessedAt      time.Time `json:"processed_at"`
}

func (ProcessedRecord) TableName() string {
	return "ai_processed_data"
}
