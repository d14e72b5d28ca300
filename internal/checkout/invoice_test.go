package checkout

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcbeauty/storefront-backend/pkg/db/models"
)

func TestFormatMoneyDOP(t *testing.T) {
	cases := map[string]string{
		"1380":        "RD$1,380.00",
		"0":           "RD$0.00",
		"690.5":       "RD$690.50",
		"1234567.891": "RD$1,234,567.89",
		"999.999":     "RD$1,000.00",
	}
	for in, want := range cases {
		if got := FormatMoneyDOP(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatMoneyDOP(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestInvoiceText(t *testing.T) {
	inv := Invoice{
		StoreName:    "MC Beauty & Fragrance",
		CustomerName: "Ana",
		OrderNumber:  1001,
		PlacedAt:     time.Date(2026, 3, 5, 18, 7, 0, 0, time.UTC),
		Location:     time.FixedZone("AST", -4*60*60),
		Lines: []InvoiceLine{
			{Name: "Rose Mist", Variant: "splash", Qty: 3, LineTotal: decimal.NewFromInt(2070)},
			{Name: "Rose Mist", Variant: "crema", Qty: 1, LineTotal: decimal.NewFromInt(750)},
			{Name: "Producto", Qty: 1, LineTotal: decimal.NewFromInt(100)},
		},
		Total:        decimal.NewFromInt(2920),
		DeliveryNote: "El costo de delivery se paga al mensajero.",
	}

	want := strings.Join([]string{
		"MC Beauty & Fragrance",
		"--------------------------",
		"Cliente: Ana",
		"Pedido #1001",
		"Fecha: 5/3/2026",
		"Hora: 2:07 p. m.",
		"",
		"Productos:",
		"• Rose Mist (splash) x3 — RD$2,070.00",
		"• Rose Mist (crema) x1 — RD$750.00",
		"• Producto x1 — RD$100.00",
		"",
		"--------------------------",
		"Total: RD$2,920.00",
		"",
		"Delivery:",
		"El costo de delivery se paga al mensajero.",
		"",
		"Quiero coordinar mi pedido.💖",
	}, "\n")

	if got := inv.Text(); got != want {
		t.Fatalf("unexpected invoice:\n%s\n--- want ---\n%s", got, want)
	}
}

func TestClockTimeMorning(t *testing.T) {
	if got := clockTime(time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC)); got != "12:05 a. m." {
		t.Fatalf("unexpected clock time %q", got)
	}
}

func TestPaymentBlock(t *testing.T) {
	bank := "Banco Popular"
	holder := "MC Beauty SRL"
	account := "812345678"
	qr := "https://cdn.example.com/qr.png"
	method := &models.PaymentMethod{
		Name:          "Transferencia",
		BankName:      &bank,
		AccountHolder: &holder,
		AccountNumber: &account,
		HasQR:         true,
		QRImageURL:    &qr,
	}

	want := strings.Join([]string{
		"",
		"--------------------------------",
		"MÉTODO DE PAGO:",
		"Transferencia",
		"Banco: Banco Popular",
		"Titular: MC Beauty SRL",
		"Cuenta: 812345678",
		"QR: (ver en la web)",
		"",
		"✅ Confirmo que he realizado la transferencia.",
	}, "\n")
	if got := PaymentBlock(method, true); got != want {
		t.Fatalf("unexpected transfer block:\n%s", got)
	}

	cash := PaymentBlock(&models.PaymentMethod{Name: "Efectivo"}, false)
	if cash != "\n--------------------------------\nMÉTODO DE PAGO:\nEfectivo" {
		t.Fatalf("unexpected cash block %q", cash)
	}

	if PaymentBlock(nil, false) != "" {
		t.Fatal("expected empty block without a method")
	}
}

func TestWhatsAppURL(t *testing.T) {
	got := WhatsAppURL("+1 (829) 728-3652", "Hola & adiós\nRD$1,380.00")
	want := "https://wa.me/18297283652?text=Hola%20%26%20adi%C3%B3s%0ARD%241%2C380.00"
	if got != want {
		t.Fatalf("WhatsAppURL() = %q, want %q", got, want)
	}
}
