package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carnoises/ingresos-gastos-app/internal/core"
	"github.com/carnoises/ingresos-gastos-app/internal/ledger"
	"github.com/carnoises/ingresos-gastos-app/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := ledger.New(store, nil)
	server := New(svc, store, Options{})
	return server.Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func createTestAccount(t *testing.T, router *gin.Engine, name, balance string) core.Account {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/accounts", gin.H{"name": name, "balance": balance})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[core.Account](t, w)
}

func TestWelcomeAndHealth(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ingresos y Gastos")

	w = doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestAccountLifecycle(t *testing.T) {
	router := newTestRouter(t)

	account := createTestAccount(t, router, "Banco", "100.50")
	assert.NotZero(t, account.ID)
	assert.Equal(t, "Banco", account.Name)
	assert.Equal(t, core.DefaultAccountType, account.Type)
	assert.True(t, account.Balance.Equal(decimal.RequireFromString("100.50")))

	// Duplicate name conflicts.
	w := doJSON(t, router, http.MethodPost, "/api/accounts", gin.H{"name": "Banco"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Missing name is a binding error.
	w = doJSON(t, router, http.MethodPost, "/api/accounts", gin.H{"balance": "5"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/accounts/%d", account.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/accounts", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	accounts := decode[[]core.Account](t, w)
	assert.Len(t, accounts, 1)

	w = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/accounts/%d", account.ID), gin.H{"name": "Principal"})
	assert.Equal(t, http.StatusOK, w.Code)
	updated := decode[core.Account](t, w)
	assert.Equal(t, "Principal", updated.Name)

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/accounts/%d", account.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/accounts/%d", account.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/accounts/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransactionEndpoints(t *testing.T) {
	router := newTestRouter(t)
	account := createTestAccount(t, router, "Banco", "0")

	w := doJSON(t, router, http.MethodPost, "/api/transactions", gin.H{
		"description": "Salary",
		"amount":      "200",
		"type":        "income",
		"account_id":  account.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tx := decode[core.Transaction](t, w)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("200")))

	// Balance reflects the posting.
	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/accounts/%d", account.ID), nil)
	refreshed := decode[core.Account](t, w)
	assert.True(t, refreshed.Balance.Equal(decimal.RequireFromString("200")))

	// Invalid type is a 400 from the engine.
	w = doJSON(t, router, http.MethodPost, "/api/transactions", gin.H{
		"amount":     "10",
		"type":       "transfer_out",
		"account_id": account.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown account is a 404.
	w = doJSON(t, router, http.MethodPost, "/api/transactions", gin.H{
		"amount":     "10",
		"type":       "income",
		"account_id": 999,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/transactions/%d", tx.ID), gin.H{"amount": "250"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/transactions?account_id=%d", account.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	list := decode[[]core.Transaction](t, w)
	require.Len(t, list, 1)

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", tx.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	deleted := decode[core.Transaction](t, w)
	assert.Equal(t, tx.ID, deleted.ID)

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", tx.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTransferEndpoint(t *testing.T) {
	router := newTestRouter(t)
	from := createTestAccount(t, router, "A", "500")
	to := createTestAccount(t, router, "B", "0")

	w := doJSON(t, router, http.MethodPost, "/api/transfers", gin.H{
		"from_account_id": from.ID,
		"to_account_id":   to.ID,
		"amount":          "100",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	transfer := decode[core.Transfer](t, w)
	assert.Equal(t, core.TypeTransferOut, transfer.FromTransaction.Type)
	assert.Equal(t, core.TypeTransferIn, transfer.ToTransaction.Type)
	require.NotNil(t, transfer.ToTransaction.ToAccountID)
	assert.Equal(t, from.ID, *transfer.ToTransaction.ToAccountID)
	assert.Nil(t, transfer.FromTransaction.ToAccountID)

	w = doJSON(t, router, http.MethodPost, "/api/transfers", gin.H{
		"from_account_id": from.ID,
		"to_account_id":   from.ID,
		"amount":          "10",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransferLegImmutableOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	from := createTestAccount(t, router, "A", "100")
	to := createTestAccount(t, router, "B", "0")

	w := doJSON(t, router, http.MethodPost, "/api/transfers", gin.H{
		"from_account_id": from.ID,
		"to_account_id":   to.ID,
		"amount":          "25",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	transfer := decode[core.Transfer](t, w)

	w = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/transactions/%d", transfer.FromTransaction.ID), gin.H{"amount": "50"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportEndpointsAndCacheInvalidation(t *testing.T) {
	router := newTestRouter(t)
	account := createTestAccount(t, router, "Banco", "0")

	post := func(amount, txType, date string) {
		w := doJSON(t, router, http.MethodPost, "/api/transactions", gin.H{
			"amount":     amount,
			"type":       txType,
			"account_id": account.ID,
			"date":       date,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	post("200", "income", "2024-03-10T08:00:00Z")
	post("50", "expense", "2024-03-15T08:00:00Z")

	w := doJSON(t, router, http.MethodGet, "/api/reports/monthly?year=2024&month=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[core.MonthlyReport](t, w)
	assert.True(t, report.TotalIncome.Equal(decimal.RequireFromString("200")))
	assert.True(t, report.TotalExpense.Equal(decimal.RequireFromString("50")))
	assert.True(t, report.NetBalance.Equal(decimal.RequireFromString("150")))

	// A mutation purges the report cache, so the next read sees the new row.
	post("100", "income", "2024-03-20T08:00:00Z")

	w = doJSON(t, router, http.MethodGet, "/api/reports/monthly?year=2024&month=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	report = decode[core.MonthlyReport](t, w)
	assert.True(t, report.TotalIncome.Equal(decimal.RequireFromString("300")))

	w = doJSON(t, router, http.MethodGet, "/api/reports/daily?year=2024&month=3&day=15", nil)
	require.Equal(t, http.StatusOK, w.Code)
	daily := decode[core.DailyReport](t, w)
	assert.True(t, daily.TotalExpense.Equal(decimal.RequireFromString("50")))

	w = doJSON(t, router, http.MethodGet, "/api/reports/monthly?year=bad", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDailyReportRequiresDay(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/reports/daily?year=2024&month=3", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "day is required")

	w = doJSON(t, router, http.MethodGet, "/api/reports/daily?year=2024&month=3&day=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategorizedReportEndpoint(t *testing.T) {
	router := newTestRouter(t)
	account := createTestAccount(t, router, "Banco", "0")

	w := doJSON(t, router, http.MethodPost, "/api/categories", gin.H{"name": "Food"})
	require.Equal(t, http.StatusCreated, w.Code)
	category := decode[core.Category](t, w)

	for _, amount := range []string{"30", "20"} {
		w = doJSON(t, router, http.MethodPost, "/api/transactions", gin.H{
			"amount":      amount,
			"type":        "expense",
			"account_id":  account.ID,
			"category_id": category.ID,
			"date":        "2024-03-10T00:00:00Z",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/api/reports/categorized?year=2024&month=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode[[]core.CategoryExpense](t, w)
	require.Len(t, rows, 1)
	assert.Equal(t, "Food", rows[0].Category)
	assert.True(t, rows[0].TotalExpense.Equal(decimal.RequireFromString("50")))
}

func TestCategoryEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/categories", gin.H{"name": "Food"})
	require.Equal(t, http.StatusCreated, w.Code)
	category := decode[core.Category](t, w)

	w = doJSON(t, router, http.MethodPost, "/api/categories", gin.H{"name": "Food"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/categories/%d", category.ID), gin.H{"name": "Groceries"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/categories", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	categories := decode[[]core.Category](t, w)
	require.Len(t, categories, 1)
	assert.Equal(t, "Groceries", categories[0].Name)

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/categories/%d", category.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/categories/%d", category.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get("X-Request-ID"))
}
