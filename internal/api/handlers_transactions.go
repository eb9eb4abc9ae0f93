package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/carnoises/ingresos-gastos-app/internal/core"
)

type createTransactionRequest struct {
	Description string               `json:"description"`
	Amount      decimal.Decimal      `json:"amount" binding:"required"`
	Type        core.TransactionType `json:"type" binding:"required"`
	AccountID   int64                `json:"account_id" binding:"required"`
	Date        *time.Time           `json:"date"`
	CategoryID  *int64               `json:"category_id"`
}

type updateTransactionRequest struct {
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        *time.Time       `json:"date"`
}

func (s *Server) createTransaction(c *gin.Context) {
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := core.NewTransaction{
		Description: req.Description,
		Amount:      req.Amount,
		Type:        req.Type,
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
	}
	if req.Date != nil {
		in.Date = *req.Date
	}

	tx, err := s.ledger.RecordTransaction(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.invalidateReports()
	c.JSON(http.StatusCreated, tx)
}

func (s *Server) listTransactions(c *gin.Context) {
	var accountID *int64
	if raw := c.Query("account_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account_id"})
			return
		}
		accountID = &id
	}

	transactions, err := s.ledger.Transactions(c.Request.Context(), accountID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}

func (s *Server) updateTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := s.ledger.UpdateTransaction(c.Request.Context(), id, core.TransactionUpdate{
		Description: req.Description,
		Amount:      req.Amount,
		Date:        req.Date,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.invalidateReports()
	c.JSON(http.StatusOK, tx)
}

func (s *Server) deleteTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	tx, err := s.ledger.DeleteTransaction(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.invalidateReports()
	c.JSON(http.StatusOK, tx)
}
