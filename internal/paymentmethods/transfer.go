package paymentmethods

import (
	"strings"

	"github.com/mcbeauty/storefront-backend/pkg/db/models"
)

var transferNameHints = []string{"transfer", "banco", "depósito", "deposito"}

// IsTransfer reports whether the shopper has to move money before the order
// is confirmed: the method carries bank details or a QR code, or its name
// says so.
func IsTransfer(m *models.PaymentMethod) bool {
	if m == nil {
		return false
	}
	if nonEmpty(m.AccountNumber) || m.HasQR || nonEmpty(m.BankName) {
		return true
	}
	name := strings.ToLower(m.Name)
	for _, hint := range transferNameHints {
		if strings.Contains(name, hint) {
			return true
		}
	}
	return false
}

func nonEmpty(v *string) bool {
	return v != nil && strings.TrimSpace(*v) != ""
}
