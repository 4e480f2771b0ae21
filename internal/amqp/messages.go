package amqp

import (
	"encoding/json"
	"time"
)

// TransactionPostedMessage announces a committed posting to the statement
// export worker. It carries ids only; the worker fetches the full record
// from the store, so a stale message is harmless.
type TransactionPostedMessage struct {
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionPostedMessage(userID, transactionID string) *TransactionPostedMessage {
	return &TransactionPostedMessage{
		UserID:        userID,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

func (m *TransactionPostedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionPostedMessageFromJSON(data []byte) (*TransactionPostedMessage, error) {
	var msg TransactionPostedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
