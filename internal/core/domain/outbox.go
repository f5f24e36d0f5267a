package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Outbox event types emitted for every ledger mutation.
const (
	EventWalletCredited = "wallet.credited"
	EventWalletDebited  = "wallet.debited"
)

// OutboxEvent is a transactional-outbox row. It is appended in the same
// database transaction as the balance mutation it describes and published to
// the event stream by the poller, giving at-least-once delivery.
type OutboxEvent struct {
	ID          uuid.UUID `json:"id"`
	AggregateID uuid.UUID `json:"aggregate_id"` // wallet id
	EventType   string    `json:"event_type"`
	Payload     []byte    `json:"payload"`
	CreatedAt   time.Time `json:"created_at"`
	Published   bool      `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// LedgerEventPayload is the JSON body carried by wallet outbox events.
type LedgerEventPayload struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	WalletID      uuid.UUID `json:"wallet_id"`
	CustomerID    string    `json:"customer_id"`
	CurrencyCode  string    `json:"currency_code"`
	Type          string    `json:"type"`
	Amount        string    `json:"amount"`
	BalanceAfter  string    `json:"balance_after"`
	ReferenceID   *string   `json:"reference_id,omitempty"`
}

// NewLedgerEvent builds the outbox row for a committed wallet transaction.
func NewLedgerEvent(w *Wallet, txn *WalletTransaction) (*OutboxEvent, error) {
	eventType := EventWalletCredited
	if txn.Type == TransactionTypeDebit {
		eventType = EventWalletDebited
	}

	payload, err := json.Marshal(LedgerEventPayload{
		TransactionID: txn.ID,
		WalletID:      w.ID,
		CustomerID:    w.CustomerID,
		CurrencyCode:  w.CurrencyCode,
		Type:          string(txn.Type),
		Amount:        txn.Amount.String(),
		BalanceAfter:  txn.BalanceAfter.String(),
		ReferenceID:   txn.ReferenceID,
	})
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		ID:          uuid.New(),
		AggregateID: w.ID,
		EventType:   eventType,
		Payload:     payload,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
