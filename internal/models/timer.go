package models

import "time"

// Timer records one tracked work interval; StopAt is nil while running.
type Timer struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	TaskID      string     `json:"task_id" gorm:"not null;index"`
	StartAt     time.Time  `json:"start_at" gorm:"not null"`
	StopAt      *time.Time `json:"stop_at" gorm:"index"`
	DurationSec int64      `json:"duration_sec" gorm:"not null;default:0"`
	Source      string     `json:"source" gorm:"not null;default:'manual'"`
}

func (Timer) TableName() string {
	return "task_timer"
}

// DayLog marks a calendar day whose daily note has been opened.
type DayLog struct {
	Day         string    `json:"day" gorm:"primaryKey"`
	DailyMdPath string    `json:"daily_md_path" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime:false"`
}

func (DayLog) TableName() string {
	return "day_log"
}
