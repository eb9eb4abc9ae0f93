package core

import "github.com/shopspring/decimal"

// EffectiveDelta returns the signed change a transaction applies to its
// owning account's balance. Amounts are stored as non-negative magnitudes;
// this is the single place the type tag is turned into a sign:
//
//	income       +amount
//	expense      -amount
//	transfer_out -amount
//	transfer_in  +amount
//
// Create applies the delta, delete applies its negation, and update reverses
// the old delta before applying the new one.
func EffectiveDelta(t TransactionType, amount decimal.Decimal) decimal.Decimal {
	amount = amount.Abs()
	switch t {
	case TypeIncome, TypeTransferIn:
		return amount
	case TypeExpense, TypeTransferOut:
		return amount.Neg()
	}
	return decimal.Zero
}
