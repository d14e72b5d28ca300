package models

import (
	"github.com/google/uuid"
)

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model, in dependency order. SQLite dev databases
// and repository tests auto-migrate from it.
func All() []any {
	return []any{
		&Brand{},
		&Product{},
		&PaymentMethod{},
		&Order{},
		&OrderItem{},
		&PageView{},
		&CartSnapshot{},
		&OutboxEvent{},
	}
}
