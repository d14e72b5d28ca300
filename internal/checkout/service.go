package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mcbeauty/storefront-backend/internal/cart"
	"github.com/mcbeauty/storefront-backend/internal/orders"
	"github.com/mcbeauty/storefront-backend/internal/paymentmethods"
	"github.com/mcbeauty/storefront-backend/pkg/config"
	"github.com/mcbeauty/storefront-backend/pkg/db/models"
	"github.com/mcbeauty/storefront-backend/pkg/enums"
	pkgerrors "github.com/mcbeauty/storefront-backend/pkg/errors"
	"github.com/mcbeauty/storefront-backend/pkg/logger"
	"github.com/mcbeauty/storefront-backend/pkg/outbox"
	"github.com/mcbeauty/storefront-backend/pkg/outbox/payloads"
)

const minCustomerNameLength = 2

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartSessions interface {
	Get(ctx context.Context, sessionID string) (*cart.Store, error)
}

type methodLister interface {
	ListActive(ctx context.Context) ([]models.PaymentMethod, error)
}

// Service turns a session cart into a persisted order and a WhatsApp hand-off.
type Service interface {
	Submit(ctx context.Context, sessionID string, input Input) (*Result, error)
}

// Input is what the shopper fills in on the checkout page.
type Input struct {
	CustomerName    string
	PaymentMethodID *uuid.UUID
	ConfirmTransfer bool
}

// Result is returned once the order is stored and the cart emptied.
type Result struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber int64           `json:"order_number"`
	Total       decimal.Decimal `json:"total"`
	Message     string          `json:"message"`
	WhatsAppURL string          `json:"whatsapp_url"`
}

type ServiceParams struct {
	Tx             txRunner
	Carts          cartSessions
	Orders         orders.Repository
	PaymentMethods methodLister
	Outbox         outbox.Emitter
	Store          config.StoreConfig
	Logger         *logger.Logger
	Now            func() time.Time
}

type service struct {
	tx       txRunner
	carts    cartSessions
	orders   orders.Repository
	methods  methodLister
	outbox   outbox.Emitter
	store    config.StoreConfig
	location *time.Location
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart registry required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.PaymentMethods == nil {
		return nil, fmt.Errorf("payment methods required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		tx:       params.Tx,
		carts:    params.Carts,
		orders:   params.Orders,
		methods:  params.PaymentMethods,
		outbox:   params.Outbox,
		store:    params.Store,
		location: params.Store.Location(),
		logg:     params.Logger,
		now:      now,
	}, nil
}

type pricedLine struct {
	item      cart.LineItem
	unitPrice decimal.Decimal
	lineTotal decimal.Decimal
}

func (s *service) Submit(ctx context.Context, sessionID string, input Input) (*Result, error) {
	name := strings.TrimSpace(input.CustomerName)
	if utf8.RuneCountInString(name) < minCustomerNameLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name must have at least 2 characters").
			WithDetails(map[string]any{"field": "customer_name"})
	}

	store, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, cart.SessionError(err)
	}
	if store.Count() == 0 {
		return nil, errEmptyCart()
	}

	method, transfer, err := s.selectPaymentMethod(ctx, input)
	if err != nil {
		return nil, err
	}

	placedAt := s.now().UTC()
	var (
		order *models.Order
		lines []pricedLine
		total decimal.Decimal
	)
	snap, err := store.Checkout(context.WithoutCancel(ctx), func(items []cart.LineItem) error {
		if len(items) == 0 {
			return errEmptyCart()
		}
		lines, total = priceLines(items)
		created, err := s.placeOrder(ctx, sessionID, name, method, transfer && input.ConfirmTransfer, lines, total, placedAt)
		if err != nil {
			return err
		}
		order = created
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}

	invoice := Invoice{
		StoreName:    s.store.Name,
		CustomerName: name,
		OrderNumber:  order.OrderNumber,
		PlacedAt:     placedAt,
		Location:     s.location,
		Total:        total,
		DeliveryNote: s.store.DeliveryNote,
	}
	for _, line := range lines {
		invoice.Lines = append(invoice.Lines, InvoiceLine{
			Name:      line.item.Name,
			Variant:   line.item.Variant,
			Qty:       line.item.Quantity,
			LineTotal: line.lineTotal,
		})
	}
	text := invoice.Text() + PaymentBlock(method, transfer)

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
	})
	if snap.PersistError != "" {
		s.logg.Warn(ctx, "checkout.cart_clear_failed")
	}
	s.logg.Info(ctx, "checkout.order_submitted")

	return &Result{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Total:       total,
		Message:     text,
		WhatsAppURL: WhatsAppURL(s.store.WhatsAppPhone, text),
	}, nil
}

// selectPaymentMethod enforces the payment rules. With no active methods the
// order goes through without one.
func (s *service) selectPaymentMethod(ctx context.Context, input Input) (*models.PaymentMethod, bool, error) {
	methods, err := s.methods.ListActive(ctx)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, false, err
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment methods")
	}
	if len(methods) == 0 {
		return nil, false, nil
	}
	if input.PaymentMethodID == nil || *input.PaymentMethodID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "select a payment method to continue").
			WithDetails(map[string]any{"field": "payment_method_id"})
	}

	var selected *models.PaymentMethod
	for i := range methods {
		if methods[i].ID == *input.PaymentMethodID {
			selected = &methods[i]
			break
		}
	}
	if selected == nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "payment method is not available").
			WithDetails(map[string]any{"field": "payment_method_id"})
	}

	transfer := paymentmethods.IsTransfer(selected)
	if transfer && !input.ConfirmTransfer {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "confirm the transfer before sending the order").
			WithDetails(map[string]any{"field": "confirm_transfer"})
	}
	return selected, transfer, nil
}

func errEmptyCart() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
}

// placeOrder writes the order, its items and the order_created event in one
// transaction.
func (s *service) placeOrder(ctx context.Context, sessionID, name string, method *models.PaymentMethod, transferConfirmed bool, lines []pricedLine, total decimal.Decimal, placedAt time.Time) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		number, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return err
		}

		record := &models.Order{
			OrderNumber:     number,
			CustomerName:    name,
			SessionID:       sessionID,
			TransferConfirm: transferConfirmed,
			Status:          enums.OrderStatusPending,
			Total:           total,
			CreatedAt:       placedAt,
		}
		if method != nil {
			record.PaymentMethodID = &method.ID
			record.PaymentMethod = &method.Name
		}

		orderItems := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			orderItems = append(orderItems, models.OrderItem{
				ProductID: line.item.ID,
				Name:      line.item.Name,
				Variant:   line.item.Variant,
				Qty:       line.item.Quantity,
				UnitPrice: line.unitPrice,
				LineTotal: line.lineTotal,
			})
		}

		created, err := repo.Create(ctx, record, orderItems)
		if err != nil {
			return err
		}
		order = created
		return s.emitOrderCreated(ctx, tx, created)
	})
	return order, err
}

func priceLines(items []cart.LineItem) ([]pricedLine, decimal.Decimal) {
	lines := make([]pricedLine, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		unit := decimal.NewFromFloat(item.UnitPrice).Round(2)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(lineTotal)
		lines = append(lines, pricedLine{item: item, unitPrice: unit, lineTotal: lineTotal})
	}
	return lines, total
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	event := payloads.OrderCreatedEvent{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		CustomerName: order.CustomerName,
		Total:        order.Total,
		Items:        make([]payloads.OrderCreatedItem, 0, len(order.Items)),
		CreatedAt:    order.CreatedAt,
	}
	if order.PaymentMethod != nil {
		event.PaymentMethod = *order.PaymentMethod
	}
	for _, item := range order.Items {
		event.ItemCount += item.Qty
		event.Items = append(event.Items, payloads.OrderCreatedItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Variant:   item.Variant,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
		})
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data:          event,
		OccurredAt:    order.CreatedAt,
	})
}
