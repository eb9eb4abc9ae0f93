package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/carnoises/ingresos-gastos-app/internal/core"
)

type createTransferRequest struct {
	FromAccountID int64           `json:"from_account_id" binding:"required"`
	ToAccountID   int64           `json:"to_account_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Description   string          `json:"description"`
	Date          *time.Time      `json:"date"`
}

func (s *Server) createTransfer(c *gin.Context) {
	var req createTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := core.NewTransfer{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
		Description:   req.Description,
	}
	if req.Date != nil {
		in.Date = *req.Date
	}

	transfer, err := s.ledger.RecordTransfer(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.invalidateReports()
	c.JSON(http.StatusCreated, transfer)
}
