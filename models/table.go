package models

import "time"

// Table status values. Status is only written through services.TableTracker.
const (
	TableAvailable  = "available"
	TableOccupied   = "occupied"
	TableInProgress = "in_progress"
	TableServed     = "served"
)

type Table struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TableNumber string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"table_number"`
	Status      string    `gorm:"type:varchar(50);not null;default:'available'" json:"status"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// ValidTableStatus reports whether s is one of the four legal statuses.
func ValidTableStatus(s string) bool {
	switch s {
	case TableAvailable, TableOccupied, TableInProgress, TableServed:
		return true
	}
	return false
}
