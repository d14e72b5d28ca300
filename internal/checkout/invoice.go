package checkout

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/mcbeauty/storefront-backend/pkg/db/models"
)

const (
	invoiceRule  = "--------------------------"
	paymentRule  = "--------------------------------"
	closingLine  = "Quiero coordinar mi pedido.💖"
	transferLine = "✅ Confirmo que he realizado la transferencia."
	whatsAppBase = "https://wa.me/"
)

// Dominican peso amounts group with commas and use a dot for decimals, the
// same separators as English. The generic Spanish tables would print 1.380,00.
var moneyPrinter = message.NewPrinter(language.English)

var nonDigits = regexp.MustCompile(`\D`)

// FormatMoneyDOP renders an amount as RD$1,380.00.
func FormatMoneyDOP(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	return "RD$" + moneyPrinter.Sprint(number.Decimal(rounded.InexactFloat64(), number.Scale(2)))
}

// InvoiceLine is one product row of the invoice.
type InvoiceLine struct {
	Name      string
	Variant   string
	Qty       int
	LineTotal decimal.Decimal
}

// Invoice carries everything printed in the WhatsApp order message.
type Invoice struct {
	StoreName    string
	CustomerName string
	OrderNumber  int64
	PlacedAt     time.Time
	Location     *time.Location
	Lines        []InvoiceLine
	Total        decimal.Decimal
	DeliveryNote string
}

// Text renders the invoice body.
func (inv Invoice) Text() string {
	loc := inv.Location
	if loc == nil {
		loc = time.UTC
	}
	placed := inv.PlacedAt.In(loc)

	var b strings.Builder
	b.WriteString(inv.StoreName + "\n")
	b.WriteString(invoiceRule + "\n")
	fmt.Fprintf(&b, "Cliente: %s\n", inv.CustomerName)
	fmt.Fprintf(&b, "Pedido #%d\n", inv.OrderNumber)
	fmt.Fprintf(&b, "Fecha: %s\n", placed.Format("2/1/2006"))
	fmt.Fprintf(&b, "Hora: %s\n", clockTime(placed))
	b.WriteString("\nProductos:\n")
	for _, line := range inv.Lines {
		label := line.Name
		if line.Variant != "" {
			label = fmt.Sprintf("%s (%s)", line.Name, line.Variant)
		}
		fmt.Fprintf(&b, "• %s x%d — %s\n", label, line.Qty, FormatMoneyDOP(line.LineTotal))
	}
	b.WriteString("\n" + invoiceRule + "\n")
	fmt.Fprintf(&b, "Total: %s\n", FormatMoneyDOP(inv.Total))
	b.WriteString("\nDelivery:\n")
	b.WriteString(inv.DeliveryNote + "\n")
	b.WriteString("\n" + closingLine)
	return b.String()
}

// clockTime prints a 12-hour time the way es-DO does: 3:04 p. m.
func clockTime(t time.Time) string {
	suffix := "a. m."
	if t.Hour() >= 12 {
		suffix = "p. m."
	}
	return t.Format("3:04") + " " + suffix
}

// PaymentBlock renders the selected payment method. Transfer methods add the
// bank details and the shopper's transfer confirmation.
func PaymentBlock(method *models.PaymentMethod, transfer bool) string {
	if method == nil {
		return ""
	}
	lines := []string{"", paymentRule, "MÉTODO DE PAGO:"}
	name := strings.TrimSpace(method.Name)
	if name == "" {
		name = "—"
	}
	lines = append(lines, name)

	if transfer {
		appendField := func(label string, value *string) {
			if value != nil && strings.TrimSpace(*value) != "" {
				lines = append(lines, label+": "+*value)
			}
		}
		appendField("Banco", method.BankName)
		appendField("Titular", method.AccountHolder)
		appendField("Cuenta", method.AccountNumber)
		appendField("Documento", method.DocumentID)
		if method.HasQR && method.QRImageURL != nil && *method.QRImageURL != "" {
			lines = append(lines, "QR: (ver en la web)")
		}
		lines = append(lines, "", transferLine)
	}
	return strings.Join(lines, "\n")
}

// WhatsAppURL builds the wa.me deep link that opens a chat with the store
// pre-filled with message.
func WhatsAppURL(phone, message string) string {
	digits := nonDigits.ReplaceAllString(phone, "")
	escaped := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return whatsAppBase + digits + "?text=" + escaped
}
