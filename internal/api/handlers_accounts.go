package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/carnoises/ingresos-gastos-app/internal/core"
)

type createAccountRequest struct {
	Name    string          `json:"name" binding:"required"`
	Balance decimal.Decimal `json:"balance"`
	Type    string          `json:"type"`
}

type updateAccountRequest struct {
	Name    *string          `json:"name"`
	Balance *decimal.Decimal `json:"balance"`
	Type    *string          `json:"type"`
}

func (s *Server) createAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := s.ledger.CreateAccount(c.Request.Context(), req.Name, req.Balance, req.Type)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.invalidateReports()
	c.JSON(http.StatusCreated, account)
}

func (s *Server) listAccounts(c *gin.Context) {
	accounts, err := s.ledger.Accounts(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func (s *Server) getAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	account, err := s.ledger.Account(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (s *Server) updateAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := s.ledger.UpdateAccount(c.Request.Context(), id, core.AccountUpdate{
		Name:    req.Name,
		Balance: req.Balance,
		Type:    req.Type,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.invalidateReports()
	c.JSON(http.StatusOK, account)
}

func (s *Server) deleteAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.ledger.DeleteAccount(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	s.invalidateReports()
	c.Status(http.StatusNoContent)
}

// pathID parses the :id path parameter, writing a 400 when it is not a
// number.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
