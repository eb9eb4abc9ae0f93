// Package events publishes ledger change notifications. Publishing is
// best-effort and happens after the database transaction commits: a lost
// event never fails or rolls back the operation that produced it.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/carnoises/ingresos-gastos-app/internal/core"
)

const (
	KindTransactionRecorded = "transaction.recorded"
	KindTransactionUpdated  = "transaction.updated"
	KindTransactionDeleted  = "transaction.deleted"
	KindTransferRecorded    = "transfer.recorded"
)

// Event is the wire format of one ledger change.
type Event struct {
	Kind          string    `json:"kind"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	AccountID     int64     `json:"account_id,omitempty"`
	ToAccountID   *int64    `json:"to_account_id,omitempty"`
	Type          string    `json:"type,omitempty"`
	Amount        string    `json:"amount,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewTransactionEvent builds an event describing kind applied to tx.
func NewTransactionEvent(kind string, tx core.Transaction) Event {
	return Event{
		Kind:          kind,
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		ToAccountID:   tx.ToAccountID,
		Type:          string(tx.Type),
		Amount:        tx.Amount.String(),
		OccurredAt:    time.Now().UTC(),
	}
}

// NewTransferEvent builds an event for the source leg of a transfer, naming
// the destination account.
func NewTransferEvent(out core.Transaction, toAccountID int64) Event {
	e := NewTransactionEvent(KindTransferRecorded, out)
	e.ToAccountID = &toAccountID
	return e
}

// ToJSON serializes the event body.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers ledger events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher discards all events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
