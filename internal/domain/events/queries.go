package events

import "gorm.io/gorm"

func UserEventsQuery(db *gorm.DB, userID uint) *gorm.DB {
	return db.Model(&Event{}).Where("user_id = ?", userID)
}

// CountForUser returns how many events the user owns, for per-plan limit
// enforcement at creation time.
func CountForUser(db *gorm.DB, userID uint) (int64, error) {
	var n int64
	err := UserEventsQuery(db, userID).Count(&n).Error
	return n, err
}
