package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carnoises/ingresos-gastos-app/internal/core"
)

func TestCreateCategory(t *testing.T) {
	svc, _ := newTestService(t)
	category, err := svc.CreateCategory(context.Background(), " Food ")
	require.NoError(t, err)
	assert.NotZero(t, category.ID)
	assert.Equal(t, "Food", category.Name)
}

func TestCreateCategoryEmptyName(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateCategory(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrEmptyName)
}

func TestCreateCategoryDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.CreateCategory(ctx, "Food")
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, "Food")
	assert.ErrorIs(t, err, core.ErrDuplicateName)
}

func TestCategoriesSortedByName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for _, name := range []string{"Transport", "Food", "Rent"} {
		_, err := svc.CreateCategory(ctx, name)
		require.NoError(t, err)
	}

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, "Food", categories[0].Name)
	assert.Equal(t, "Rent", categories[1].Name)
	assert.Equal(t, "Transport", categories[2].Name)
}

func TestUpdateCategory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	category, err := svc.CreateCategory(ctx, "Food")
	require.NoError(t, err)

	updated, err := svc.UpdateCategory(ctx, category.ID, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", updated.Name)
	assert.Equal(t, category.ID, updated.ID)
}

func TestUpdateCategoryConflicts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.CreateCategory(ctx, "Food")
	require.NoError(t, err)
	other, err := svc.CreateCategory(ctx, "Rent")
	require.NoError(t, err)

	_, err = svc.UpdateCategory(ctx, other.ID, "Food")
	assert.ErrorIs(t, err, core.ErrDuplicateName)

	_, err = svc.UpdateCategory(ctx, 404, "Anything")
	assert.ErrorIs(t, err, core.ErrCategoryNotFound)
}

func TestDeleteCategory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	category, err := svc.CreateCategory(ctx, "Food")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCategory(ctx, category.ID))

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestDeleteCategoryInUse(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	account := createAccount(t, svc, "Banco", "0")
	category, err := svc.CreateCategory(ctx, "Food")
	require.NoError(t, err)

	_, err = svc.RecordTransaction(ctx, core.NewTransaction{
		Amount:     dec("5"),
		Type:       core.TypeExpense,
		AccountID:  account.ID,
		CategoryID: &category.ID,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteCategory(ctx, category.ID), core.ErrCategoryInUse)
}

func TestDeleteCategoryNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	assert.ErrorIs(t, svc.DeleteCategory(context.Background(), 404), core.ErrCategoryNotFound)
}
