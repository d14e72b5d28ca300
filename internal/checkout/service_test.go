package checkout

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mcbeauty/storefront-backend/internal/cart"
	"github.com/mcbeauty/storefront-backend/internal/orders"
	"github.com/mcbeauty/storefront-backend/pkg/config"
	"github.com/mcbeauty/storefront-backend/pkg/db"
	"github.com/mcbeauty/storefront-backend/pkg/db/models"
	"github.com/mcbeauty/storefront-backend/pkg/enums"
	pkgerrors "github.com/mcbeauty/storefront-backend/pkg/errors"
	"github.com/mcbeauty/storefront-backend/pkg/logger"
	"github.com/mcbeauty/storefront-backend/pkg/outbox"
)

const (
	testSession    = "sess-1"
	testStorageKey = "mc-cart-v1"
)

type stubMethods struct {
	methods []models.PaymentMethod
	err     error
}

func (s *stubMethods) ListActive(context.Context) ([]models.PaymentMethod, error) {
	return s.methods, s.err
}

type failingEmitter struct{}

func (failingEmitter) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error {
	return errors.New("outbox unavailable")
}

// hookedTx runs after once the wrapped transaction has returned.
type hookedTx struct {
	inner txRunner
	after func()
}

func (h *hookedTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := h.inner.WithTx(ctx, fn)
	if h.after != nil {
		h.after()
	}
	return err
}

type checkoutHarness struct {
	conn      *gorm.DB
	tx        *hookedTx
	persister *cart.MemoryPersister
	registry  *cart.Registry
	methods   *stubMethods
	svc       Service
}

func newHarness(t *testing.T, emitter outbox.Emitter) *checkoutHarness {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))

	logg := logger.New(logger.Options{ServiceName: "checkout-test", Output: io.Discard})
	persister := cart.NewMemoryPersister()
	registry, err := cart.NewRegistry(cart.RegistryParams{StorageKey: testStorageKey, Persister: persister, Logger: logg})
	require.NoError(t, err)

	if emitter == nil {
		emitter = outbox.NewService(outbox.NewRepository(conn), logg)
	}
	methods := &stubMethods{}
	tx := &hookedTx{inner: db.Wrap(conn)}
	svc, err := NewService(ServiceParams{
		Tx:             tx,
		Carts:          registry,
		Orders:         orders.NewRepository(conn),
		PaymentMethods: methods,
		Outbox:         emitter,
		Store: config.StoreConfig{
			Name:          "MC Beauty & Fragrance",
			WhatsAppPhone: "18297283652",
			DeliveryNote:  "El costo de delivery se paga al mensajero.",
			Timezone:      "UTC",
		},
		Logger: logg,
		Now:    func() time.Time { return time.Date(2026, 3, 5, 18, 7, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	return &checkoutHarness{conn: conn, tx: tx, persister: persister, registry: registry, methods: methods, svc: svc}
}

func (h *checkoutHarness) fillCart(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	store, err := h.registry.Get(ctx, testSession)
	require.NoError(t, err)
	store.Add(ctx, cart.ProductInput{ID: "p1", Name: "Rose Mist", Variant: "splash", Price: 690}, 3)
	store.Add(ctx, cart.ProductInput{ID: "p1", Name: "Rose Mist", Variant: "crema", Price: 750}, 1)
}

func (h *checkoutHarness) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.conn.Model(model).Count(&n).Error)
	return n
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func TestSubmitWithoutPaymentMethods(t *testing.T) {
	h := newHarness(t, nil)
	h.fillCart(t)

	res, err := h.svc.Submit(context.Background(), testSession, Input{CustomerName: "  Ana  "})
	require.NoError(t, err)

	assert.Equal(t, int64(1001), res.OrderNumber)
	assert.True(t, res.Total.Equal(decimal.NewFromInt(2820)))
	assert.Contains(t, res.Message, "Cliente: Ana\n")
	assert.Contains(t, res.Message, "Pedido #1001")
	assert.Contains(t, res.Message, "• Rose Mist (splash) x3 — RD$2,070.00")
	assert.Contains(t, res.Message, "Total: RD$2,820.00")
	assert.NotContains(t, res.Message, "MÉTODO DE PAGO")
	assert.True(t, strings.HasPrefix(res.WhatsAppURL, "https://wa.me/18297283652?text="))

	var order models.Order
	require.NoError(t, h.conn.Preload("Items").First(&order, "id = ?", res.OrderID).Error)
	assert.Equal(t, "Ana", order.CustomerName)
	assert.Equal(t, testSession, order.SessionID)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Nil(t, order.PaymentMethodID)
	require.Len(t, order.Items, 2)

	var events []models.OutboxEvent
	require.NoError(t, h.conn.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventOrderCreated, events[0].EventType)
	assert.Equal(t, res.OrderID, events[0].AggregateID)

	assert.False(t, h.persister.Has(cart.StorageKey(testStorageKey, testSession)))

	store, err := h.registry.Get(context.Background(), testSession)
	require.NoError(t, err)
	assert.Equal(t, 0, store.Count())
}

func TestSubmitAssignsSequentialOrderNumbers(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.fillCart(t)
	first, err := h.svc.Submit(ctx, testSession, Input{CustomerName: "Ana"})
	require.NoError(t, err)

	h.fillCart(t)
	second, err := h.svc.Submit(ctx, testSession, Input{CustomerName: "Ana"})
	require.NoError(t, err)

	assert.Equal(t, first.OrderNumber+1, second.OrderNumber)
}

func TestSubmitValidation(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.svc.Submit(ctx, testSession, Input{CustomerName: " A "})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = h.svc.Submit(ctx, testSession, Input{CustomerName: "Ana"})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = h.svc.Submit(ctx, "  ", Input{CustomerName: "Ana"})
	requireCode(t, err, pkgerrors.CodeValidation)

	assert.Zero(t, h.count(t, &models.Order{}))
}

func TestSubmitPaymentMethodRules(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.fillCart(t)

	account := "812345678"
	cash := models.PaymentMethod{ID: uuid.New(), Name: "Efectivo", Active: true}
	transfer := models.PaymentMethod{ID: uuid.New(), Name: "Banco Popular", AccountNumber: &account, Active: true}
	h.methods.methods = []models.PaymentMethod{cash, transfer}

	_, err := h.svc.Submit(ctx, testSession, Input{CustomerName: "Ana"})
	requireCode(t, err, pkgerrors.CodeValidation)

	unknown := uuid.New()
	_, err = h.svc.Submit(ctx, testSession, Input{CustomerName: "Ana", PaymentMethodID: &unknown})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = h.svc.Submit(ctx, testSession, Input{CustomerName: "Ana", PaymentMethodID: &transfer.ID})
	requireCode(t, err, pkgerrors.CodeValidation)
	assert.Zero(t, h.count(t, &models.Order{}))

	res, err := h.svc.Submit(ctx, testSession, Input{CustomerName: "Ana", PaymentMethodID: &transfer.ID, ConfirmTransfer: true})
	require.NoError(t, err)
	assert.Contains(t, res.Message, "MÉTODO DE PAGO:\nBanco Popular")
	assert.Contains(t, res.Message, "Cuenta: 812345678")
	assert.Contains(t, res.Message, "✅ Confirmo que he realizado la transferencia.")

	var order models.Order
	require.NoError(t, h.conn.First(&order, "id = ?", res.OrderID).Error)
	require.NotNil(t, order.PaymentMethodID)
	assert.Equal(t, transfer.ID, *order.PaymentMethodID)
	assert.True(t, order.TransferConfirm)
}

func TestSubmitCashNeedsNoConfirmation(t *testing.T) {
	h := newHarness(t, nil)
	h.fillCart(t)
	cash := models.PaymentMethod{ID: uuid.New(), Name: "Efectivo", Active: true}
	h.methods.methods = []models.PaymentMethod{cash}

	res, err := h.svc.Submit(context.Background(), testSession, Input{CustomerName: "Ana", PaymentMethodID: &cash.ID})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(res.Message, "MÉTODO DE PAGO:\nEfectivo"))
}

func TestSubmitRollsBackWhenOutboxFails(t *testing.T) {
	h := newHarness(t, failingEmitter{})
	h.fillCart(t)

	_, err := h.svc.Submit(context.Background(), testSession, Input{CustomerName: "Ana"})
	requireCode(t, err, pkgerrors.CodeInternal)

	assert.Zero(t, h.count(t, &models.Order{}))
	assert.Zero(t, h.count(t, &models.OrderItem{}))

	store, err := h.registry.Get(context.Background(), testSession)
	require.NoError(t, err)
	assert.Equal(t, 4, store.Count())
	assert.True(t, h.persister.Has(cart.StorageKey(testStorageKey, testSession)))
}

func TestSubmitKeepsItemsAddedDuringOrderWrite(t *testing.T) {
	h := newHarness(t, nil)
	h.fillCart(t)
	ctx := context.Background()
	store, err := h.registry.Get(ctx, testSession)
	require.NoError(t, err)

	added := make(chan struct{})
	h.tx.after = func() {
		h.tx.after = nil
		go func() {
			store.Add(ctx, cart.ProductInput{ID: "p2", Name: "Oud", Price: 1200}, 1)
			close(added)
		}()
	}

	res, err := h.svc.Submit(ctx, testSession, Input{CustomerName: "Ana"})
	require.NoError(t, err)
	<-added

	var order models.Order
	require.NoError(t, h.conn.Preload("Items").First(&order, "id = ?", res.OrderID).Error)
	require.Len(t, order.Items, 2)
	for _, item := range order.Items {
		assert.Equal(t, "p1", item.ProductID)
	}

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ID)
	assert.True(t, h.persister.Has(cart.StorageKey(testStorageKey, testSession)))
}

func TestSubmitOrdersACartOnlyOnce(t *testing.T) {
	h := newHarness(t, nil)
	h.fillCart(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.Submit(ctx, testSession, Input{CustomerName: "Ana"})
		}(i)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			requireCode(t, err, pkgerrors.CodeValidation)
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, int64(1), h.count(t, &models.Order{}))
}

func TestSubmitSurfacesPaymentMethodFailures(t *testing.T) {
	h := newHarness(t, nil)
	h.fillCart(t)
	h.methods.err = errors.New("db down")

	_, err := h.svc.Submit(context.Background(), testSession, Input{CustomerName: "Ana"})
	requireCode(t, err, pkgerrors.CodeDependency)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}
