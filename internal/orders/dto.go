package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mcbeauty/storefront-backend/pkg/db/models"
)

// OrderDTO is the order confirmation payload shown to the shopper.
type OrderDTO struct {
	ID            uuid.UUID       `json:"id"`
	OrderNumber   int64           `json:"order_number"`
	CustomerName  string          `json:"customer_name"`
	PaymentMethod *string         `json:"payment_method,omitempty"`
	Status        string          `json:"status"`
	Total         decimal.Decimal `json:"total"`
	Items         []OrderItemDTO  `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
}

type OrderItemDTO struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Variant   string          `json:"variant,omitempty"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

func ToDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.CustomerName,
		PaymentMethod: order.PaymentMethod,
		Status:        order.Status.String(),
		Total:         order.Total,
		Items:         make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:     order.CreatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Variant:   item.Variant,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return dto
}
