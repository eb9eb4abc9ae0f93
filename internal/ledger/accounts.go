package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/carnoises/ingresos-gastos-app/internal/core"
)

// CreateAccount creates an account with a unique name. An empty account
// type falls back to the default classification.
func (s *Service) CreateAccount(ctx context.Context, name string, balance decimal.Decimal, accountType string) (core.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Account{}, core.ErrEmptyName
	}
	accountType = strings.TrimSpace(accountType)
	if accountType == "" {
		accountType = core.DefaultAccountType
	}

	var account core.Account
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.nameAvailableInTx(ctx, tx, "accounts", name, 0); err != nil {
			return err
		}
		account = core.Account{Name: name, Balance: balance, Type: accountType, Transactions: []core.Transaction{}}
		err := tx.QueryRowContext(ctx,
			s.store.Rebind("INSERT INTO accounts (name, balance, type) VALUES (?, ?, ?) RETURNING id"),
			name, balance, accountType,
		).Scan(&account.ID)
		if err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Account{}, err
	}

	slog.InfoContext(ctx, "Account created", "account_id", account.ID, "name", account.Name)
	return account, nil
}

// Accounts lists all accounts with their transaction history attached.
func (s *Service) Accounts(ctx context.Context) ([]core.Account, error) {
	rows, err := s.store.DB().QueryContext(ctx,
		"SELECT id, name, balance, type FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	accounts := []core.Account{}
	index := map[int64]int{}
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Balance, &a.Type); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Transactions = []core.Transaction{}
		index[a.ID] = len(accounts)
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	transactions, err := s.Transactions(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, t := range transactions {
		if i, ok := index[t.AccountID]; ok {
			accounts[i].Transactions = append(accounts[i].Transactions, t)
		}
	}
	return accounts, nil
}

// Account returns one account with its transaction history.
func (s *Service) Account(ctx context.Context, id int64) (core.Account, error) {
	var a core.Account
	err := s.store.DB().QueryRowContext(ctx,
		s.store.Rebind("SELECT id, name, balance, type FROM accounts WHERE id = ?"), id,
	).Scan(&a.ID, &a.Name, &a.Balance, &a.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("load account: %w", err)
	}

	transactions, err := s.Transactions(ctx, &id)
	if err != nil {
		return core.Account{}, err
	}
	a.Transactions = transactions
	return a, nil
}

// UpdateAccount applies a partial update; only supplied fields change.
// Setting balance directly is allowed for manual corrections and bypasses
// the transaction history.
func (s *Service) UpdateAccount(ctx context.Context, id int64, upd core.AccountUpdate) (core.Account, error) {
	var account core.Account
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.accountInTx(ctx, tx, id)
		if err != nil {
			return err
		}

		if upd.Name != nil {
			name := strings.TrimSpace(*upd.Name)
			if name == "" {
				return core.ErrEmptyName
			}
			if name != existing.Name {
				if err := s.nameAvailableInTx(ctx, tx, "accounts", name, id); err != nil {
					return err
				}
			}
			existing.Name = name
		}
		if upd.Balance != nil {
			existing.Balance = *upd.Balance
		}
		if upd.Type != nil && strings.TrimSpace(*upd.Type) != "" {
			existing.Type = strings.TrimSpace(*upd.Type)
		}

		_, err = tx.ExecContext(ctx,
			s.store.Rebind("UPDATE accounts SET name = ?, balance = ?, type = ? WHERE id = ?"),
			existing.Name, existing.Balance, existing.Type, existing.ID)
		if err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		account = existing
		return nil
	})
	if err != nil {
		return core.Account{}, err
	}

	transactions, err := s.Transactions(ctx, &id)
	if err != nil {
		return core.Account{}, err
	}
	account.Transactions = transactions

	slog.InfoContext(ctx, "Account updated", "account_id", account.ID, "name", account.Name)
	return account, nil
}

// DeleteAccount removes an account that has no transaction history. An
// account still referenced by any posting (as owner or counterparty) cannot
// be deleted without breaking the balance invariant of its peers.
func (s *Service) DeleteAccount(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.accountInTx(ctx, tx, id); err != nil {
			return err
		}

		var refs int
		err := tx.QueryRowContext(ctx,
			s.store.Rebind("SELECT COUNT(*) FROM transactions WHERE account_id = ? OR to_account_id = ?"), id, id,
		).Scan(&refs)
		if err != nil {
			return fmt.Errorf("count account references: %w", err)
		}
		if refs > 0 {
			return core.ErrAccountInUse
		}

		if _, err := tx.ExecContext(ctx, s.store.Rebind("DELETE FROM accounts WHERE id = ?"), id); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Account deleted", "account_id", id)
	return nil
}

// nameAvailableInTx enforces name uniqueness before any mutating write.
// excludeID skips the row being renamed.
func (s *Service) nameAvailableInTx(ctx context.Context, tx *sql.Tx, table, name string, excludeID int64) error {
	var id int64
	err := tx.QueryRowContext(ctx,
		s.store.Rebind("SELECT id FROM "+table+" WHERE name = ?"), name,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check name: %w", err)
	}
	if id == excludeID {
		return nil
	}
	return core.ErrDuplicateName
}
