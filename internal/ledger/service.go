// Package ledger implements the balance-consistency engine: the operations
// that create, update and delete transactions and transfers while keeping
// every account's stored balance equal to the net sum of its effective
// transaction history. Each operation runs inside one database transaction;
// the row write and the balance mutation commit together or not at all.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carnoises/ingresos-gastos-app/internal/core"
	"github.com/carnoises/ingresos-gastos-app/internal/events"
	"github.com/carnoises/ingresos-gastos-app/internal/storage"
)

// Service exposes ledger operations over an explicitly injected store
// handle. Events are published best-effort after commit.
type Service struct {
	store  *storage.Store
	events events.Publisher
}

func New(store *storage.Store, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{store: store, events: publisher}
}

const transactionColumns = "id, description, amount, type, date, account_id, to_account_id, category_id, transfer_group"

// RecordTransaction inserts an income or expense row and applies its
// effective delta to the owning account's balance in the same unit of work.
// The amount is coerced to its absolute value before storage.
func (s *Service) RecordTransaction(ctx context.Context, in core.NewTransaction) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	amount := in.Amount.Abs()
	date := normalizeDate(in.Date)
	if in.Date.IsZero() {
		date = normalizeDate(time.Now())
	}

	var recorded core.Transaction
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		account, err := s.accountInTx(ctx, tx, in.AccountID)
		if err != nil {
			return err
		}
		if in.CategoryID != nil {
			if err := s.categoryExistsInTx(ctx, tx, *in.CategoryID); err != nil {
				return err
			}
		}

		recorded = core.Transaction{
			Description: in.Description,
			Amount:      amount,
			Type:        in.Type,
			Date:        date,
			AccountID:   in.AccountID,
			CategoryID:  in.CategoryID,
		}
		if err := s.insertTransactionInTx(ctx, tx, &recorded); err != nil {
			return err
		}

		newBalance := account.Balance.Add(core.EffectiveDelta(in.Type, amount))
		return s.setBalanceInTx(ctx, tx, account.ID, newBalance)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"transaction_id", recorded.ID,
		"account_id", recorded.AccountID,
		"type", recorded.Type,
		"amount", recorded.Amount.String())
	s.publish(ctx, events.NewTransactionEvent(events.KindTransactionRecorded, recorded))

	return recorded, nil
}

// RecordTransfer atomically creates the two legs of a transfer: a
// transfer_out posting on the source account and a transfer_in posting on
// the destination. The transfer_in leg back-references the source account
// through to_account_id; the transfer_out leg leaves it unset. Both legs
// share one date (capture time unless given) and an internal transfer
// group id.
func (s *Service) RecordTransfer(ctx context.Context, in core.NewTransfer) (core.Transfer, error) {
	if err := in.Validate(); err != nil {
		return core.Transfer{}, err
	}

	amount := in.Amount.Abs()

	var transfer core.Transfer
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		from, err := s.accountInTx(ctx, tx, in.FromAccountID)
		if err != nil {
			return err
		}
		to, err := s.accountInTx(ctx, tx, in.ToAccountID)
		if err != nil {
			return err
		}

		date := in.Date
		if date.IsZero() {
			date = time.Now()
		}
		date = normalizeDate(date)
		group := uuid.NewString()

		outDesc := in.Description
		inDesc := in.Description
		if outDesc == "" {
			outDesc = core.TransferDescription(core.TypeTransferOut, to.Name)
			inDesc = core.TransferDescription(core.TypeTransferIn, from.Name)
		}

		outLeg := core.Transaction{
			Description:   outDesc,
			Amount:        amount,
			Type:          core.TypeTransferOut,
			Date:          date,
			AccountID:     from.ID,
			TransferGroup: group,
		}
		inLeg := core.Transaction{
			Description:   inDesc,
			Amount:        amount,
			Type:          core.TypeTransferIn,
			Date:          date,
			AccountID:     to.ID,
			ToAccountID:   &from.ID,
			TransferGroup: group,
		}

		if err := s.insertTransactionInTx(ctx, tx, &outLeg); err != nil {
			return err
		}
		if err := s.insertTransactionInTx(ctx, tx, &inLeg); err != nil {
			return err
		}

		if err := s.setBalanceInTx(ctx, tx, from.ID, from.Balance.Sub(amount)); err != nil {
			return err
		}
		if err := s.setBalanceInTx(ctx, tx, to.ID, to.Balance.Add(amount)); err != nil {
			return err
		}

		transfer = core.Transfer{FromTransaction: outLeg, ToTransaction: inLeg}
		return nil
	})
	if err != nil {
		return core.Transfer{}, err
	}

	slog.InfoContext(ctx, "Transfer recorded",
		"from_account_id", in.FromAccountID,
		"to_account_id", in.ToAccountID,
		"amount", amount.String())
	s.publish(ctx, events.NewTransferEvent(transfer.FromTransaction, in.ToAccountID))

	return transfer, nil
}

// UpdateTransaction applies partial updates to an income or expense row
// using reversal-then-reapply: the old effective delta is subtracted from
// the account, the fields are updated, and the new delta (with the original
// immutable type) is added back, all inside one database transaction so the
// intermediate reversed-only balance is never observable. Transfer legs are
// an atomic pair and are rejected here.
func (s *Service) UpdateTransaction(ctx context.Context, id int64, upd core.TransactionUpdate) (core.Transaction, error) {
	var updated core.Transaction
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.transactionInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing.Type.IsTransfer() {
			return core.ErrTransferImmutable
		}

		account, err := s.accountInTx(ctx, tx, existing.AccountID)
		if err != nil {
			return err
		}

		// Phase 1: reverse the current effect.
		balance := account.Balance.Sub(core.EffectiveDelta(existing.Type, existing.Amount))

		// Phase 2: apply field updates.
		if upd.Description != nil {
			if len(*upd.Description) > 200 {
				return core.ErrDescriptionTooLong
			}
			existing.Description = *upd.Description
		}
		if upd.Amount != nil {
			amount := upd.Amount.Abs()
			if amount.IsZero() {
				return core.ErrInvalidAmount
			}
			existing.Amount = amount
		}
		if upd.Date != nil {
			existing.Date = normalizeDate(*upd.Date)
		}

		// Phase 3: re-apply with the original type.
		balance = balance.Add(core.EffectiveDelta(existing.Type, existing.Amount))

		_, err = tx.ExecContext(ctx,
			s.store.Rebind("UPDATE transactions SET description = ?, amount = ?, date = ? WHERE id = ?"),
			nullableString(existing.Description), existing.Amount, existing.Date, existing.ID)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}

		if err := s.setBalanceInTx(ctx, tx, account.ID, balance); err != nil {
			return err
		}

		updated = existing
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction updated",
		"transaction_id", updated.ID,
		"account_id", updated.AccountID,
		"amount", updated.Amount.String())
	s.publish(ctx, events.NewTransactionEvent(events.KindTransactionUpdated, updated))

	return updated, nil
}

// DeleteTransaction reverses a transaction's balance effect and removes the
// row. Deleting either leg of a transfer removes both legs and reverses
// both balances, keeping the pair consistent.
func (s *Service) DeleteTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	var deleted core.Transaction
	var removed []core.Transaction
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		target, err := s.transactionInTx(ctx, tx, id)
		if err != nil {
			return err
		}

		legs := []core.Transaction{target}
		if target.TransferGroup != "" {
			legs, err = s.transferLegsInTx(ctx, tx, target.TransferGroup)
			if err != nil {
				return err
			}
		}

		for _, leg := range legs {
			account, err := s.accountInTx(ctx, tx, leg.AccountID)
			if err != nil {
				return err
			}
			balance := account.Balance.Sub(core.EffectiveDelta(leg.Type, leg.Amount))
			if err := s.setBalanceInTx(ctx, tx, account.ID, balance); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, s.store.Rebind("DELETE FROM transactions WHERE id = ?"), leg.ID); err != nil {
				return fmt.Errorf("delete transaction: %w", err)
			}
		}

		deleted = target
		removed = legs
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction deleted",
		"transaction_id", deleted.ID,
		"account_id", deleted.AccountID,
		"legs", len(removed))
	for _, leg := range removed {
		s.publish(ctx, events.NewTransactionEvent(events.KindTransactionDeleted, leg))
	}

	return deleted, nil
}

// Transactions lists transactions newest first, optionally filtered by
// owning account.
func (s *Service) Transactions(ctx context.Context, accountID *int64) ([]core.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions"
	var args []any
	if accountID != nil {
		query += " WHERE account_id = ?"
		args = append(args, *accountID)
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := s.store.DB().QueryContext(ctx, s.store.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", event.Kind,
			"transaction_id", event.TransactionID,
			"error", err)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t             core.Transaction
		description   sql.NullString
		toAccountID   sql.NullInt64
		categoryID    sql.NullInt64
		transferGroup sql.NullString
	)
	err := row.Scan(&t.ID, &description, &t.Amount, &t.Type, &t.Date,
		&t.AccountID, &toAccountID, &categoryID, &transferGroup)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Description = description.String
	if toAccountID.Valid {
		t.ToAccountID = &toAccountID.Int64
	}
	if categoryID.Valid {
		t.CategoryID = &categoryID.Int64
	}
	t.TransferGroup = transferGroup.String
	t.Date = t.Date.UTC()
	return t, nil
}

func (s *Service) transactionInTx(ctx context.Context, tx *sql.Tx, id int64) (core.Transaction, error) {
	row := tx.QueryRowContext(ctx,
		s.store.Rebind("SELECT "+transactionColumns+" FROM transactions WHERE id = ?"), id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	return t, err
}

func (s *Service) transferLegsInTx(ctx context.Context, tx *sql.Tx, group string) ([]core.Transaction, error) {
	rows, err := tx.QueryContext(ctx,
		s.store.Rebind("SELECT "+transactionColumns+" FROM transactions WHERE transfer_group = ? ORDER BY id"), group)
	if err != nil {
		return nil, fmt.Errorf("query transfer legs: %w", err)
	}
	defer rows.Close()

	var legs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		legs = append(legs, t)
	}
	return legs, rows.Err()
}

func (s *Service) insertTransactionInTx(ctx context.Context, tx *sql.Tx, t *core.Transaction) error {
	err := tx.QueryRowContext(ctx,
		s.store.Rebind(`INSERT INTO transactions (description, amount, type, date, account_id, to_account_id, category_id, transfer_group)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		nullableString(t.Description), t.Amount, t.Type, t.Date,
		t.AccountID, t.ToAccountID, t.CategoryID, nullableString(t.TransferGroup),
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Service) accountInTx(ctx context.Context, tx *sql.Tx, id int64) (core.Account, error) {
	var a core.Account
	err := tx.QueryRowContext(ctx,
		s.store.Rebind("SELECT id, name, balance, type FROM accounts WHERE id = ?"), id,
	).Scan(&a.ID, &a.Name, &a.Balance, &a.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("load account: %w", err)
	}
	return a, nil
}

func (s *Service) categoryExistsInTx(ctx context.Context, tx *sql.Tx, id int64) error {
	var found int64
	err := tx.QueryRowContext(ctx, s.store.Rebind("SELECT id FROM categories WHERE id = ?"), id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrCategoryNotFound
	}
	if err != nil {
		return fmt.Errorf("load category: %w", err)
	}
	return nil
}

func (s *Service) setBalanceInTx(ctx context.Context, tx *sql.Tx, accountID int64, balance decimal.Decimal) error {
	_, err := tx.ExecContext(ctx,
		s.store.Rebind("UPDATE accounts SET balance = ? WHERE id = ?"), balance, accountID)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	return nil
}

// nullableString maps "" to NULL so optional text columns stay NULL instead
// of accumulating empty strings.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// normalizeDate stores timestamps as whole seconds in UTC. SQLite keeps
// timestamps as text; uniform precision keeps range comparisons aligned
// with chronological order.
func normalizeDate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
