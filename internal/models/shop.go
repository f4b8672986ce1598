package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductCategory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Slug        string    `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ProductCategory) TableName() string {
	return "product_categories"
}

type Product struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	CategoryID  *uint               `gorm:"index" json:"category"`
	Category    *ProductCategory    `gorm:"foreignKey:CategoryID" json:"category_details,omitempty"`
	Name        string              `gorm:"size:200;not null" json:"name"`
	Slug        string              `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	Description string              `gorm:"type:text" json:"description"`
	Price       decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"price"`
	SalePrice   decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"sale_price"`
	Stock       int                 `gorm:"not null;default:0" json:"stock"`
	ImageURL    string              `gorm:"type:text" json:"image"`
	IsFeatured  bool                `gorm:"not null" json:"is_featured"`
	IsActive    bool                `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`

	OnSale             bool `gorm:"-" json:"is_on_sale"`
	DiscountPercentage int  `gorm:"-" json:"discount_percentage"`
}

func (Product) TableName() string {
	return "products"
}

// IsOnSale reports whether a sale price below the list price is set.
func (p *Product) IsOnSale() bool {
	return p.SalePrice.Valid && p.SalePrice.Decimal.LessThan(p.Price)
}

// CurrentPrice is the price an order is charged.
func (p *Product) CurrentPrice() decimal.Decimal {
	if p.IsOnSale() {
		return p.SalePrice.Decimal
	}
	return p.Price
}

func (p *Product) Discount() int {
	if !p.IsOnSale() || !p.Price.IsPositive() {
		return 0
	}
	off := p.Price.Sub(p.SalePrice.Decimal).Div(p.Price).Mul(decimal.NewFromInt(100))
	return int(off.IntPart())
}

func (p *Product) AfterFind(tx *gorm.DB) error {
	p.OnSale = p.IsOnSale()
	p.DiscountPercentage = p.Discount()
	return nil
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderNumber     string          `gorm:"size:20;uniqueIndex;not null" json:"order_number"`
	OwnerID         uint            `gorm:"index;not null" json:"customer"`
	Status          OrderStatus     `gorm:"size:20;not null" json:"status"`
	ShippingAddress string          `gorm:"type:text" json:"shipping_address"`
	Phone           string          `gorm:"size:15" json:"phone"`
	Notes           string          `gorm:"type:text" json:"notes"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	ShippingCost    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"shipping_cost"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"index;not null" json:"order"`
	ProductID   uint            `gorm:"index;not null" json:"product"`
	ProductName string          `gorm:"size:200;not null" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
