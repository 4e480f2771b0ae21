package amqp

import (
	"testing"
	"time"
)

func TestNewTransactionPostedMessage(t *testing.T) {
	msg := NewTransactionPostedMessage("user-1", "txn-1")

	if msg.UserID != "user-1" || msg.TransactionID != "txn-1" {
		t.Fatalf("got %+v", msg)
	}
	if msg.Timestamp.IsZero() || time.Since(msg.Timestamp) > time.Second {
		t.Fatalf("timestamp should be recent, got %v", msg.Timestamp)
	}
}

func TestTransactionPostedMessageRoundTrip(t *testing.T) {
	msg := &TransactionPostedMessage{
		UserID:        "user-1",
		TransactionID: "txn-1",
		Timestamp:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	parsed, err := TransactionPostedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if parsed.UserID != msg.UserID || parsed.TransactionID != msg.TransactionID || !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Fatalf("round trip mismatch: %+v", parsed)
	}
}

func TestTransactionPostedMessageInvalidJSON(t *testing.T) {
	if _, err := TransactionPostedMessageFromJSON([]byte(`{"user_id": 42`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
