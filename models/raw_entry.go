package models

import "time"

// RawEntry 原始日记记录，由录入端写入，本服务只读
type RawEntry struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Date        string    `gorm:"type:varchar(10);index" json:"date"` // 格式: YYYY-MM-DD，同一天可以有多条
	Mood        string    `gorm:"type:text" json:"mood"`
	Life        string    `gorm:"type:text" json:"life"`
	Study       string    `gorm:"type:text" json:"study"`
	Work        string    `gorm:"type:text" json:"work"`
	Inspiration string    `gorm:"type:text" json:"inspiration"`
	CreatedAt   time.Time `json:"created_at"`
}

func (RawEntry) TableName() string {
	return "raw_entries"
}
