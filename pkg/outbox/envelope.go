package outbox

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/mcbeauty/storefront-backend/pkg/enums"
)

// CurrentEnvelopeVersion is stamped on every row written by Emit.
const CurrentEnvelopeVersion = 1

// PayloadEnvelope is the JSON stored in outbox_events.payload and sent as the
// Pub/Sub message body. Data holds the event-specific payload.
type PayloadEnvelope struct {
	Version    int                   `json:"version"`
	EventID    string                `json:"eventId"`
	Type       enums.OutboxEventType `json:"type,omitempty"`
	OccurredAt time.Time             `json:"occurredAt"`
	Source     string                `json:"source,omitempty"`
	Data       json.RawMessage       `json:"data"`
}

// Check rejects envelopes a consumer could not process.
func (e PayloadEnvelope) Check() error {
	switch {
	case e.Version < 1 || e.Version > CurrentEnvelopeVersion:
		return errors.New("unsupported envelope version")
	case e.EventID == "":
		return errors.New("envelope missing eventId")
	case e.OccurredAt.IsZero():
		return errors.New("envelope missing occurredAt")
	}
	return nil
}
