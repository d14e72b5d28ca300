package payloads

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderCreatedEvent tells the back office a shopper submitted an order and was
// handed off to WhatsApp.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID          `json:"order_id"`
	OrderNumber   int64              `json:"order_number"`
	CustomerName  string             `json:"customer_name"`
	PaymentMethod string             `json:"payment_method,omitempty"`
	Total         decimal.Decimal    `json:"total"`
	ItemCount     int                `json:"item_count"`
	Items         []OrderCreatedItem `json:"items"`
	CreatedAt     time.Time          `json:"created_at"`
}

type OrderCreatedItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Variant   string          `json:"variant,omitempty"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (e *OrderCreatedEvent) Validate() error {
	switch {
	case e.OrderID == uuid.Nil:
		return errors.New("order_id required")
	case e.OrderNumber <= 0:
		return errors.New("order_number must be positive")
	case len(e.Items) == 0:
		return errors.New("order has no items")
	case e.Total.IsNegative():
		return errors.New("total must not be negative")
	}
	return nil
}

// Attributes are copied onto the Pub/Sub message so subscribers can filter
// without decoding the body.
func (e *OrderCreatedEvent) Attributes() map[string]string {
	attrs := map[string]string{
		"order_number": strconv.FormatInt(e.OrderNumber, 10),
		"total":        e.Total.StringFixed(2),
	}
	if e.PaymentMethod != "" {
		attrs["payment_method"] = e.PaymentMethod
	}
	return attrs
}
