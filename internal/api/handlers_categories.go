package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type categoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) createCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := s.ledger.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (s *Server) listCategories(c *gin.Context) {
	categories, err := s.ledger.Categories(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (s *Server) updateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := s.ledger.UpdateCategory(c.Request.Context(), id, req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.invalidateReports()
	c.JSON(http.StatusOK, category)
}

func (s *Server) deleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.ledger.DeleteCategory(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	s.invalidateReports()
	c.Status(http.StatusNoContent)
}
