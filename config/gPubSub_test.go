package config

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub/pstest"
)

func TestPublishExpenseStatusChanged_ReusesTopic(t *testing.T) {
	srv := pstest.NewServer()
	defer srv.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", srv.Addr)

	ConfigurePubSub(PubSubSettings{ProjectID: "financial-control", ExpenseStatusTopic: "expense-status"})
	t.Cleanup(func() {
		ClosePubSub()
		ConfigurePubSub(PubSubSettings{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if _, err := CreateTopicIfNotExists(ctx, "expense-status"); err != nil {
		t.Fatalf("CreateTopicIfNotExists: %v", err)
	}

	msg := ExpenseStatusMessage{
		Event:      EventExpenseStatusChanged,
		ExpenseId:  7,
		OldStatus:  "AWAITING_COMMITMENT",
		NewStatus:  "AWAITING_PAYMENT",
		Trigger:    "commitment.create",
		OccurredAt: time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC),
	}
	if _, err := PublishExpenseStatusChanged(ctx, msg); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	first := statusTopic
	if _, err := PublishExpenseStatusChanged(ctx, msg); err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if first == nil || statusTopic != first {
		t.Fatalf("status topic must be created once and reused")
	}

	published := srv.Messages()
	if len(published) != 2 {
		t.Fatalf("expected 2 published messages, got %d", len(published))
	}
	var decoded ExpenseStatusMessage
	if err := json.Unmarshal(published[0].Data, &decoded); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if decoded.ExpenseId != 7 || decoded.NewStatus != "AWAITING_PAYMENT" || published[0].Attributes["event"] != EventExpenseStatusChanged {
		t.Fatalf("unexpected message %+v %v", decoded, published[0].Attributes)
	}

	ClosePubSub()
	if statusTopic != nil {
		t.Fatalf("ClosePubSub must stop and drop the status topic")
	}
}
