package store

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vault-planning/internal/models"
)

// GetDayLog returns the log for day, or nil if the day was never opened.
func (s *Store) GetDayLog(day string) (*models.DayLog, error) {
	var log models.DayLog
	err := s.db.Where("day = ?", day).First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err, "load day log %s", day)
	}
	return &log, nil
}

// UpsertDayLog records the daily note path for day.
func (s *Store) UpsertDayLog(day, dailyMdPath string) (*models.DayLog, error) {
	at := now()
	log := models.DayLog{Day: day, DailyMdPath: dailyMdPath, CreatedAt: at, UpdatedAt: at}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"daily_md_path", "updated_at"}),
	}).Create(&log).Error
	if err != nil {
		return nil, dbError(err, "save day log %s", day)
	}
	return s.GetDayLog(day)
}
