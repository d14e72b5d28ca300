package paymentmethods

import (
	"github.com/google/uuid"

	"github.com/mcbeauty/storefront-backend/pkg/db/models"
)

// MethodDTO is what the checkout page renders for each option.
type MethodDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	BankName      *string   `json:"bank_name,omitempty"`
	AccountHolder *string   `json:"account_holder,omitempty"`
	AccountNumber *string   `json:"account_number,omitempty"`
	DocumentID    *string   `json:"document_id,omitempty"`
	HasQR         bool      `json:"has_qr"`
	QRImageURL    *string   `json:"qr_image_url,omitempty"`
	IsTransfer    bool      `json:"is_transfer"`
}

func ToDTO(m *models.PaymentMethod) MethodDTO {
	return MethodDTO{
		ID:            m.ID,
		Name:          m.Name,
		BankName:      m.BankName,
		AccountHolder: m.AccountHolder,
		AccountNumber: m.AccountNumber,
		DocumentID:    m.DocumentID,
		HasQR:         m.HasQR,
		QRImageURL:    m.QRImageURL,
		IsTransfer:    IsTransfer(m),
	}
}
