package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type OrderStatus string

const (
	OrderStatusCart      OrderStatus = "CART"
	OrderStatusCompleted OrderStatus = "COMPLETED"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"         json:"id"`
	Firstname    string    `gorm:"not null"                         json:"firstname"`
	Lastname     string    `gorm:"not null"                         json:"lastname"`
	Username     string    `gorm:"uniqueIndex;not null"             json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"             json:"email"`
	PasswordHash string    `gorm:"not null"                         json:"-"`
	Role         Role      `gorm:"type:varchar(16);not null"        json:"role"`
	CreatedAt    time.Time `gorm:"not null"                         json:"created_at"`
}

type AccessToken struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"                json:"id"`
	Token  string `gorm:"uniqueIndex;not null"                    json:"-"`
	UserID uint   `gorm:"index;not null"                          json:"user_id"`
	User   *User  `gorm:"constraint:OnDelete:CASCADE"             json:"-"`
}

type RefreshToken struct {
	ID            uint         `gorm:"primaryKey;autoIncrement"         json:"id"`
	Token         string       `gorm:"uniqueIndex;not null"             json:"-"`
	AccessTokenID *uint        `gorm:"index"                            json:"access_token_id"`
	AccessToken   *AccessToken `gorm:"constraint:OnDelete:SET NULL"     json:"-"`
}

type Category struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;not null"     json:"name"`
}

type Product struct {
	ID         uint            `gorm:"primaryKey;autoIncrement"     json:"id"`
	Title      string          `gorm:"uniqueIndex;not null"         json:"title"`
	Price      decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"price"`
	CategoryID uint            `gorm:"index;not null"               json:"-"`
	Category   *Category       `gorm:"constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	ImgName    string          `                                    json:"img_name"`
}

type Order struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"           json:"id"`
	Status    OrderStatus     `gorm:"type:varchar(16);index;not null"    json:"status"`
	Total     decimal.Decimal `gorm:"type:numeric(12,2);not null"        json:"total"`
	UserID    uint            `gorm:"index;not null"                     json:"user_id"`
	User      *User           `gorm:"constraint:OnDelete:CASCADE"        json:"-"`
	Items     []OrderItem     `gorm:"constraint:OnDelete:CASCADE"        json:"items"`
	CreatedAt time.Time       `gorm:"not null"                           json:"created_at"`
}

type OrderItem struct {
	ID        uint     `gorm:"primaryKey;autoIncrement"                  json:"id"`
	OrderID   uint     `gorm:"not null;uniqueIndex:idx_order_product"    json:"-"`
	ProductID uint     `gorm:"not null;uniqueIndex:idx_order_product"    json:"-"`
	Product   *Product `gorm:"constraint:OnDelete:RESTRICT"              json:"product"`
	Quantity  int      `gorm:"not null;default:1;check:quantity>0"       json:"quantity"`
}

type Image struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;not null"     json:"name"`
	Type string `gorm:"not null"                 json:"type"`
	Data []byte `gorm:"not null"                 json:"-"`
}

// All lists every table in migration order.
func All() []any {
	return []any{
		&User{},
		&AccessToken{},
		&RefreshToken{},
		&Category{},
		&Product{},
		&Order{},
		&OrderItem{},
		&Image{},
	}
}

// LineTotal is quantity times unit price with no rounding.
func (i OrderItem) LineTotal() decimal.Decimal {
	if i.Product == nil {
		return decimal.Zero
	}
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// RecalculateTotal sets Total to the half-up rounded sum of line totals.
// Items must be loaded with their products.
func (o *Order) RecalculateTotal() {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.LineTotal())
	}
	o.Total = sum.Round(2)
}
