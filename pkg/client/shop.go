package client

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/swiftserve/swiftserve-backend/internal/models"
)

type OrderItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type OrderInput struct {
	Items           []OrderItem `json:"items"`
	ShippingAddress string      `json:"shipping_address,omitempty"`
	PhoneNumber     string      `json:"phone_number,omitempty"`
	Notes           string      `json:"notes,omitempty"`
}

// Order is a placed order. A Provisional order was never confirmed by the
// server: its number was generated locally and Err holds the failure.
type Order struct {
	models.Order
	Provisional bool  `json:"provisional,omitempty"`
	Err         error `json:"-"`
}

func (c *Client) Categories(ctx context.Context) ([]models.ProductCategory, error) {
	var out []models.ProductCategory
	err := c.get(ctx, "/api/product-categories/", &out)
	return out, err
}

// Products lists the active catalog, optionally narrowed to a category
// slug.
func (c *Client) Products(ctx context.Context, category string) ([]models.Product, error) {
	path := "/api/products/"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var out []models.Product
	err := c.get(ctx, path, &out)
	return out, err
}

func (c *Client) FeaturedProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := c.get(ctx, "/api/products/featured/", &out)
	return out, err
}

func (c *Client) OnSaleProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := c.get(ctx, "/api/products/on_sale/", &out)
	return out, err
}

func (c *Client) Product(ctx context.Context, slug string) (*models.Product, error) {
	var out models.Product
	if err := c.get(ctx, "/api/products/"+url.PathEscape(slug)+"/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Orders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := c.get(ctx, "/api/orders/", &out)
	return out, err
}

// PlaceOrder checks out a cart. When the server cannot be reached it
// returns a provisional order together with the transport error so the
// portal can show a pending confirmation. Rejections from the server are
// returned as they are.
func (c *Client) PlaceOrder(ctx context.Context, in OrderInput) (*Order, error) {
	var out models.Order
	err := c.post(ctx, "/api/orders/create_order/", in, &out)
	if err == nil {
		return &Order{Order: out}, nil
	}
	if !errors.Is(err, ErrTransport) {
		return nil, err
	}

	provisional := &Order{
		Order: models.Order{
			OrderNumber:     provisionalOrderNumber(),
			Status:          models.OrderPending,
			ShippingAddress: in.ShippingAddress,
			Phone:           in.PhoneNumber,
			Notes:           in.Notes,
		},
		Provisional: true,
		Err:         err,
	}
	for _, item := range in.Items {
		provisional.Items = append(provisional.Items, models.OrderItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return provisional, err
}

func provisionalOrderNumber() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
