package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	got, err := ParseOrderStatus("pending")
	if err != nil || got != OrderStatusPending {
		t.Fatalf("expected pending, got %q err=%v", got, err)
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestOutboxEnums(t *testing.T) {
	if !EventOrderCreated.IsValid() {
		t.Fatal("order_created should be valid")
	}
	if OutboxEventType("ad_created").IsValid() {
		t.Fatal("unexpected valid event type")
	}
	if _, err := ParseOutboxAggregateType("order"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParsePageViewEntityType(t *testing.T) {
	if got, err := ParsePageViewEntityType(""); err != nil || got != "" {
		t.Fatalf("empty entity type should be accepted, got %q err=%v", got, err)
	}
	if got, err := ParsePageViewEntityType("product"); err != nil || got != PageViewEntityProduct {
		t.Fatalf("expected product, got %q err=%v", got, err)
	}
	if _, err := ParsePageViewEntityType("store"); err == nil {
		t.Fatal("expected error for unknown entity type")
	}
}

func TestParseOutboxEventTypeMessage(t *testing.T) {
	_, err := ParseOutboxEventType("order_shipped")
	if err == nil || err.Error() != `invalid event type "order_shipped"` {
		t.Fatalf("unexpected error %v", err)
	}
}
