package models

import "time"

// Session binds a table to an ordering client for a fixed validity window.
// A session counts as active iff IsActive and ExpiresAt is in the future.
type Session struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TableID   uint      `gorm:"not null;index" json:"table_id"`
	Table     Table     `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"table"`
	Token     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"token"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}

// Active reports whether the session is usable at time now.
func (s *Session) Active(now time.Time) bool {
	return s.IsActive && s.ExpiresAt.After(now)
}
