package models

import "time"

// Menu status values, derived from stock.
const (
	MenuInStock    = "in_stock"
	MenuOutOfStock = "out_of_stock"
)

type Menu struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"type:varchar(100);not null;default:'Uncategorized'" json:"category"`
	Price       float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock       int       `gorm:"not null;default:0" json:"stock"`
	Status      string    `gorm:"type:varchar(20);not null;default:'in_stock'" json:"status"`
	ImageURL    *string   `gorm:"type:varchar(255)" json:"image_url,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// SyncStatus derives Status from Stock. Call after every stock write.
func (m *Menu) SyncStatus() {
	if m.Stock <= 0 {
		m.Stock = 0
		m.Status = MenuOutOfStock
	} else {
		m.Status = MenuInStock
	}
}
