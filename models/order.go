package models

import "time"

// Order status values.
const (
	OrderPending  = "pending"
	OrderUnserved = "unserved"
	OrderServed   = "served"
)

// Payment status values. Payment moves independently of serve status.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// Payment methods.
const (
	PaymentMethodCash   = "cash"
	PaymentMethodOnline = "online"
)

type Order struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	TableID       uint        `gorm:"not null;index" json:"table_id"`
	Table         Table       `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"table"`
	SessionID     uint        `gorm:"not null;index" json:"session_id"`
	Session       Session     `gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Status        string      `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaymentStatus string      `gorm:"type:varchar(20);not null;default:'unpaid'" json:"payment_status"`
	PaymentMethod string      `gorm:"type:varchar(20);not null" json:"payment_method"`
	TotalAmount   float64     `gorm:"type:decimal(10,2);not null;default:0.00" json:"total_amount"`
	CreatedAt     time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"not null" json:"updated_at"`
	OrderItems    []OrderItem `gorm:"foreignKey:OrderID" json:"order_items"`
}
