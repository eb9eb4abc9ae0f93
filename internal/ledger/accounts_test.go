package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carnoises/ingresos-gastos-app/internal/core"
)

func TestCreateAccountDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	account, err := svc.CreateAccount(context.Background(), "  Corriente  ", dec("100"), "")
	require.NoError(t, err)
	assert.NotZero(t, account.ID)
	assert.Equal(t, "Corriente", account.Name, "name is trimmed")
	assert.Equal(t, core.DefaultAccountType, account.Type)
	assertAmount(t, "100", account.Balance)
}

func TestCreateAccountEmptyName(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateAccount(context.Background(), "   ", dec("0"), "")
	assert.ErrorIs(t, err, core.ErrEmptyName)
}

func TestCreateAccountDuplicateName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.CreateAccount(ctx, "Banco", dec("0"), "")
	require.NoError(t, err)

	_, err = svc.CreateAccount(ctx, "Banco", dec("500"), "Efectivo")
	assert.ErrorIs(t, err, core.ErrDuplicateName)
}

func TestAccountsIncludeTransactions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	first := createAccount(t, svc, "A", "0")
	second := createAccount(t, svc, "B", "0")

	_, err := svc.RecordTransaction(ctx, core.NewTransaction{Amount: dec("10"), Type: core.TypeIncome, AccountID: first.ID})
	require.NoError(t, err)

	accounts, err := svc.Accounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	byID := map[int64]core.Account{}
	for _, a := range accounts {
		byID[a.ID] = a
	}
	assert.Len(t, byID[first.ID].Transactions, 1)
	assert.Empty(t, byID[second.ID].Transactions)
}

func TestAccountNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Account(context.Background(), 404)
	assert.ErrorIs(t, err, core.ErrAccountNotFound)
}

func TestUpdateAccountPartial(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	account := createAccount(t, svc, "Banco", "100")

	name := "Banco Principal"
	updated, err := svc.UpdateAccount(ctx, account.ID, core.AccountUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Banco Principal", updated.Name)
	assertAmount(t, "100", updated.Balance)

	balance := dec("250.50")
	updated, err = svc.UpdateAccount(ctx, account.ID, core.AccountUpdate{Balance: &balance})
	require.NoError(t, err)
	assert.Equal(t, "Banco Principal", updated.Name)
	assertAmount(t, "250.5", updated.Balance)
}

func TestUpdateAccountDuplicateName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	createAccount(t, svc, "A", "0")
	second := createAccount(t, svc, "B", "0")

	name := "A"
	_, err := svc.UpdateAccount(ctx, second.ID, core.AccountUpdate{Name: &name})
	assert.ErrorIs(t, err, core.ErrDuplicateName)

	// Renaming to the current name is not a conflict.
	name = "B"
	_, err = svc.UpdateAccount(ctx, second.ID, core.AccountUpdate{Name: &name})
	assert.NoError(t, err)
}

func TestDeleteAccount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	account := createAccount(t, svc, "Banco", "0")

	require.NoError(t, svc.DeleteAccount(ctx, account.ID))
	_, err := svc.Account(ctx, account.ID)
	assert.ErrorIs(t, err, core.ErrAccountNotFound)
}

func TestDeleteAccountInUse(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	account := createAccount(t, svc, "Banco", "0")

	_, err := svc.RecordTransaction(ctx, core.NewTransaction{Amount: dec("1"), Type: core.TypeIncome, AccountID: account.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteAccount(ctx, account.ID), core.ErrAccountInUse)
}

func TestDeleteAccountReferencedAsTransferSource(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	from := createAccount(t, svc, "A", "100")
	to := createAccount(t, svc, "B", "0")

	_, err := svc.RecordTransfer(ctx, core.NewTransfer{FromAccountID: from.ID, ToAccountID: to.ID, Amount: dec("10")})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteAccount(ctx, from.ID), core.ErrAccountInUse)
	assert.ErrorIs(t, svc.DeleteAccount(ctx, to.ID), core.ErrAccountInUse)
}

func TestDeleteAccountNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	assert.ErrorIs(t, svc.DeleteAccount(context.Background(), 404), core.ErrAccountNotFound)
}
