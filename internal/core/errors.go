// Package core holds the ledger domain: entities, the sign convention that
// maps transaction types onto balance deltas, and the business errors the
// HTTP layer translates into status codes.
package core

import "errors"

var (
	// ErrAccountNotFound means a referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrCategoryNotFound means a referenced category does not exist.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrTransactionNotFound means a referenced transaction does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrDuplicateName means an account or category with the same name
	// already exists.
	ErrDuplicateName = errors.New("name already in use")

	// ErrSameAccount means a transfer named the same account on both sides.
	ErrSameAccount = errors.New("cannot transfer to the same account")

	// ErrTransferImmutable means an update targeted a transfer leg. Transfer
	// legs are recorded as an atomic pair and cannot be edited one-sided;
	// delete the transfer and record it again instead.
	ErrTransferImmutable = errors.New("transfer legs cannot be updated")

	// ErrInvalidType means a transaction type outside {income, expense} was
	// supplied where only those are allowed.
	ErrInvalidType = errors.New("type must be income or expense")

	// ErrInvalidAmount means a zero amount was supplied.
	ErrInvalidAmount = errors.New("amount must be non-zero")

	// ErrDescriptionTooLong means a description exceeded the stored limit.
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")

	// ErrEmptyName means an account or category was given a blank name.
	ErrEmptyName = errors.New("name must not be empty")

	// ErrAccountInUse means an account with transactions was targeted for
	// deletion.
	ErrAccountInUse = errors.New("account has transactions")

	// ErrCategoryInUse means a category referenced by transactions was
	// targeted for deletion.
	ErrCategoryInUse = errors.New("category has transactions")
)
