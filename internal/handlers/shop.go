package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/swiftserve/swiftserve-backend/internal/apperr"
	"github.com/swiftserve/swiftserve-backend/internal/models"
	"gorm.io/gorm"
)

const shelfSize = 8

var (
	freeShippingFrom = decimal.NewFromInt(50)
	flatShipping     = decimal.NewFromInt(5)

	slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)
)

type ProductInput struct {
	Name        string              `json:"name" binding:"required,max=200"`
	Slug        string              `json:"slug" binding:"max=200"`
	Description string              `json:"description"`
	Category    *uint               `json:"category"`
	Price       decimal.Decimal     `json:"price"`
	SalePrice   decimal.NullDecimal `json:"sale_price"`
	Stock       int                 `json:"stock" binding:"gte=0"`
	Image       string              `json:"image"`
	IsFeatured  bool                `json:"is_featured"`
	IsActive    *bool               `json:"is_active"`
}

type OrderItemInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type OrderInput struct {
	Items           []OrderItemInput `json:"items"`
	ShippingAddress string           `json:"shipping_address"`
	PhoneNumber     string           `json:"phone_number" binding:"max=15"`
	Notes           string           `json:"notes"`
}

func ListCategories(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories := []models.ProductCategory{}
		if err := db.WithContext(c.Request.Context()).Where("is_active = ?", true).
			Order("name ASC").Find(&categories).Error; err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

// ListProducts lists active products, filtered by ?category=<slug> and
// ?featured=true.
func ListProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := activeProducts(db.WithContext(c.Request.Context()))
		if slug := c.Query("category"); slug != "" {
			q = q.Joins("JOIN product_categories ON product_categories.id = products.category_id").
				Where("product_categories.slug = ?", slug)
		}
		if featured := c.Query("featured"); featured == "true" || featured == "1" {
			q = q.Where("products.is_featured = ?", true)
		}

		products := []models.Product{}
		if err := q.Order("products.created_at DESC").Find(&products).Error; err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func FeaturedProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		products := []models.Product{}
		if err := activeProducts(db.WithContext(c.Request.Context())).
			Where("products.is_featured = ?", true).
			Order("products.created_at DESC").Limit(shelfSize).Find(&products).Error; err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func OnSaleProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		products := []models.Product{}
		if err := activeProducts(db.WithContext(c.Request.Context())).
			Where("products.sale_price IS NOT NULL AND products.sale_price < products.price").
			Order("products.created_at DESC").Limit(shelfSize).Find(&products).Error; err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func GetProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var product models.Product
		err := activeProducts(db.WithContext(c.Request.Context())).
			Where("products.slug = ?", c.Param("slug")).First(&product).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = apperr.NotFound("Product not found")
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func CreateProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ProductInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}

		fields := map[string]string{}
		if !input.Price.IsPositive() {
			fields["price"] = "Ensure this value is greater than 0."
		}
		if input.SalePrice.Valid && !input.SalePrice.Decimal.IsPositive() {
			fields["sale_price"] = "Ensure this value is greater than 0."
		}
		slug := input.Slug
		if slug == "" {
			slug = slugify(input.Name)
		}
		if slug == "" {
			fields["slug"] = "This field is required."
		}
		if len(fields) > 0 {
			respondError(c, apperr.Validation(fields))
			return
		}

		product := models.Product{
			CategoryID:  input.Category,
			Name:        input.Name,
			Slug:        slug,
			Description: input.Description,
			Price:       input.Price.Round(2),
			SalePrice:   input.SalePrice,
			Stock:       input.Stock,
			ImageURL:    input.Image,
			IsFeatured:  input.IsFeatured,
			IsActive:    input.IsActive == nil || *input.IsActive,
		}
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			var taken int64
			if err := tx.Model(&models.Product{}).Where("slug = ?", slug).Count(&taken).Error; err != nil {
				return err
			}
			if taken > 0 {
				return apperr.Field("slug", "A product with this slug already exists.")
			}
			return tx.Create(&product).Error
		})
		if err != nil {
			respondError(c, err)
			return
		}
		product.OnSale = product.IsOnSale()
		product.DiscountPercentage = product.Discount()
		c.JSON(http.StatusCreated, product)
	}
}

// ListOrders returns the caller's orders. Admins see every order.
func ListOrders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		orders := []models.Order{}
		q := db.WithContext(c.Request.Context()).Preload("Items").Order("created_at DESC, id DESC")
		switch {
		case p.IsAdmin():
		case p.IsOwner():
			q = q.Where("owner_id = ?", p.OwnerID)
		default:
			c.JSON(http.StatusOK, orders)
			return
		}
		if err := q.Find(&orders).Error; err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// CreateOrder prices the cart at current prices and stores the order with
// its lines. Shipping is free from a subtotal of 50.
func CreateOrder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		if !p.IsOwner() {
			respondError(c, apperr.MissingData("Car owner profile required"))
			return
		}
		var input OrderInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		if len(input.Items) == 0 {
			respondError(c, apperr.MissingData("No items in order"))
			return
		}

		order := models.Order{
			OwnerID:         p.OwnerID,
			Status:          models.OrderPending,
			ShippingAddress: input.ShippingAddress,
			Phone:           input.PhoneNumber,
			Notes:           input.Notes,
		}

		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			subtotal := decimal.Zero
			for _, item := range input.Items {
				quantity := item.Quantity
				if quantity == 0 {
					quantity = 1
				}
				if quantity < 0 {
					return apperr.Invalid("items", "Quantity must be at least 1")
				}

				var product models.Product
				err := tx.Where("id = ? AND is_active = ?", item.ProductID, true).First(&product).Error
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.Invalid("items", fmt.Sprintf("Product not found: %d", item.ProductID))
				}
				if err != nil {
					return err
				}

				price := product.CurrentPrice()
				line := price.Mul(decimal.NewFromInt(int64(quantity)))
				subtotal = subtotal.Add(line)
				order.Items = append(order.Items, models.OrderItem{
					ProductID:   product.ID,
					ProductName: product.Name,
					Quantity:    quantity,
					UnitPrice:   price,
					LineTotal:   line,
				})
			}

			order.Subtotal = subtotal
			order.ShippingCost = flatShipping
			if subtotal.GreaterThanOrEqual(freeShippingFrom) {
				order.ShippingCost = decimal.Zero
			}
			order.Total = subtotal.Add(order.ShippingCost)

			number, err := uniqueCode(tx, &models.Order{}, "order_number", orderNumbers)
			if err != nil {
				return err
			}
			order.OrderNumber = number
			return tx.Create(&order).Error
		})
		if err != nil {
			respondError(c, err)
			return
		}

		log.WithFields(log.Fields{
			"order_number": order.OrderNumber,
			"owner_id":     order.OwnerID,
			"total":        order.Total.StringFixed(2),
		}).Info("order placed")
		c.JSON(http.StatusCreated, order)
	}
}

func activeProducts(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Product{}).Preload("Category").Where("products.is_active = ?", true)
}

// newOrderNumber returns ORD- followed by 8 upper-case hex characters.
func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func slugify(name string) string {
	return strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(name), "-"), "-")
}
