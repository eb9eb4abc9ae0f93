package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeIncome      TransactionType = "income"
	TypeExpense     TransactionType = "expense"
	TypeTransferOut TransactionType = "transfer_out"
	TypeTransferIn  TransactionType = "transfer_in"
)

// DefaultAccountType is applied when an account is created without a type.
const DefaultAccountType = "Banco"

type (
	TransactionType string

	// Account is a ledger account. Balance is kept equal to the net sum of
	// effective amounts of all transactions owned by the account.
	Account struct {
		ID      int64           `json:"id"`
		Name    string          `json:"name"`
		Balance decimal.Decimal `json:"balance"`
		Type    string          `json:"type"`

		// Transactions owned by this account, newest first. Populated by
		// account reads, empty on writes.
		Transactions []Transaction `json:"transactions"`
	}

	// Category is an optional classification for transactions. It has no
	// balance effect.
	Category struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	// Transaction is a single posting against one account. Amount is always
	// a non-negative magnitude; the effective sign comes from Type.
	Transaction struct {
		ID          int64           `json:"id"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Type        TransactionType `json:"type"`
		Date        time.Time       `json:"date"`
		AccountID   int64           `json:"account_id"`
		ToAccountID *int64          `json:"to_account_id,omitempty"`
		CategoryID  *int64          `json:"category_id,omitempty"`

		// TransferGroup links the two legs of a transfer. Internal only.
		TransferGroup string `json:"-"`
	}

	// Transfer is the pair of postings produced by a transfer between two
	// accounts.
	Transfer struct {
		FromTransaction Transaction `json:"from_transaction"`
		ToTransaction   Transaction `json:"to_transaction"`
	}

	// NewTransaction is the input for recording an income or expense.
	NewTransaction struct {
		Description string
		Amount      decimal.Decimal
		Type        TransactionType
		AccountID   int64
		Date        time.Time // zero value means capture time
		CategoryID  *int64
	}

	// NewTransfer is the input for recording a transfer between accounts.
	NewTransfer struct {
		FromAccountID int64
		ToAccountID   int64
		Amount        decimal.Decimal
		Description   string
		Date          time.Time
	}

	// TransactionUpdate carries partial updates for a transaction. Nil
	// fields are left unchanged; Type is immutable.
	TransactionUpdate struct {
		Description *string
		Amount      *decimal.Decimal
		Date        *time.Time
	}

	// AccountUpdate carries partial updates for an account.
	AccountUpdate struct {
		Name    *string
		Balance *decimal.Decimal
		Type    *string
	}

	// MonthlyReport aggregates income and expense totals for one month.
	MonthlyReport struct {
		Year         int             `json:"year"`
		Month        int             `json:"month"`
		TotalIncome  decimal.Decimal `json:"total_income"`
		TotalExpense decimal.Decimal `json:"total_expense"`
		NetBalance   decimal.Decimal `json:"net_balance"`
	}

	// DailyReport aggregates income and expense totals for one day.
	DailyReport struct {
		Year         int             `json:"year"`
		Month        int             `json:"month"`
		Day          int             `json:"day"`
		TotalIncome  decimal.Decimal `json:"total_income"`
		TotalExpense decimal.Decimal `json:"total_expense"`
		NetBalance   decimal.Decimal `json:"net_balance"`
	}

	// CategoryExpense is one row of the categorized expenses report.
	CategoryExpense struct {
		Category     string          `json:"category"`
		TotalExpense decimal.Decimal `json:"total_expense"`
	}
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransferOut, TypeTransferIn:
		return true
	}
	return false
}

// IsTransfer reports whether t is one of the two transfer legs.
func (t TransactionType) IsTransfer() bool {
	return t == TypeTransferOut || t == TypeTransferIn
}

func (n NewTransaction) Validate() error {
	if n.Type != TypeIncome && n.Type != TypeExpense {
		return ErrInvalidType
	}
	if n.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if n.AccountID <= 0 {
		return ErrAccountNotFound
	}
	if len(n.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

func (n NewTransfer) Validate() error {
	if n.FromAccountID == n.ToAccountID {
		return ErrSameAccount
	}
	if n.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if len(n.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

// TransferDescription builds the auto-generated description for a transfer
// leg when the caller supplied none, naming the counterparty account.
func TransferDescription(t TransactionType, counterparty string) string {
	counterparty = strings.TrimSpace(counterparty)
	if t == TypeTransferOut {
		return "Transferencia a " + counterparty
	}
	return "Transferencia desde " + counterparty
}
