package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status values shared by Order and Payment. pending is the initial state,
// success and failed are terminal.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `gorm:"not null"        json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

type Category struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"unique;not null"          json:"name"`
	Slug        string `gorm:"unique;index;not null"    json:"slug"`
	Description string `json:"description"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"     json:"id"`
	Name        string          `gorm:"not null"                     json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null"  json:"price"`
	Stock       uint            `gorm:"not null;default:0"           json:"stock"`
	CategoryID  uint            `gorm:"index;not null"               json:"category_id"`
	Category    *Category       `gorm:"constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	Image       string          `json:"image,omitempty"`
}

type Cart struct {
	ID     uint       `gorm:"primaryKey"                  json:"id"`
	UserID uint       `gorm:"uniqueIndex;not null"        json:"user_id"`
	Items  []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

type CartItem struct {
	ID        uint     `gorm:"primaryKey"                            json:"id"`
	CartID    uint     `gorm:"not null;uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID uint     `gorm:"not null;uniqueIndex:idx_cart_product" json:"product_id"`
	Product   *Product `json:"product,omitempty"`
	Quantity  uint     `gorm:"default:1;check:quantity>0"            json:"quantity"`
}

type Order struct {
	ID         uint            `gorm:"primaryKey"                  json:"id"`
	UserID     uint            `gorm:"index;not null"              json:"user_id"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(11,2);not null" json:"total_price"`
	Status     string          `gorm:"not null;default:pending"    json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	Items      []OrderItem     `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

// OrderItem snapshots the price at checkout time. ProductID is nullable:
// deleting a product keeps the historical order line intact.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey"                   json:"id"`
	OrderID   uint            `gorm:"index;not null"               json:"order_id"`
	ProductID *uint           `gorm:"constraint:OnDelete:SET NULL" json:"product_id"`
	Quantity  uint            `gorm:"default:1;check:quantity>0"   json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null"  json:"price"`
}

type Payment struct {
	ID             uint            `gorm:"primaryKey"                  json:"id"`
	OrderID        uint            `gorm:"index;not null"              json:"order_id"`
	Order          *Order          `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TransactionRef string          `gorm:"unique;not null"             json:"transaction_ref"`
	Amount         decimal.Decimal `gorm:"type:numeric(11,2);not null" json:"amount"`
	Status         string          `gorm:"not null;default:pending"    json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
