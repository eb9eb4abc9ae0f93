package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// periodParams reads year/month (and day, for daily reports) query
// parameters. Year and month default to the current UTC date; day has no
// default and is required when asked for.
func periodParams(c *gin.Context, withDay bool) (year, month, day int, ok bool) {
	now := time.Now().UTC()
	year, month = now.Year(), int(now.Month())

	parse := func(name string, dst *int, min, max int) bool {
		raw := c.Query(name)
		if raw == "" {
			return true
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < min || v > max {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s", name)})
			return false
		}
		*dst = v
		return true
	}

	if !parse("year", &year, 1, 9999) || !parse("month", &month, 1, 12) {
		return 0, 0, 0, false
	}
	if withDay {
		if c.Query("day") == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "day is required"})
			return 0, 0, 0, false
		}
		if !parse("day", &day, 1, 31) {
			return 0, 0, 0, false
		}
	}
	return year, month, day, true
}

func (s *Server) monthlyReport(c *gin.Context) {
	year, month, _, ok := periodParams(c, false)
	if !ok {
		return
	}

	key := fmt.Sprintf("monthly/%d/%d", year, month)
	if cached, hit := s.reports.Get(key); hit {
		c.JSON(http.StatusOK, cached)
		return
	}

	report, err := s.ledger.MonthlyReport(c.Request.Context(), year, month)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.reports.Set(key, report)
	c.JSON(http.StatusOK, report)
}

func (s *Server) dailyReport(c *gin.Context) {
	year, month, day, ok := periodParams(c, true)
	if !ok {
		return
	}

	key := fmt.Sprintf("daily/%d/%d/%d", year, month, day)
	if cached, hit := s.reports.Get(key); hit {
		c.JSON(http.StatusOK, cached)
		return
	}

	report, err := s.ledger.DailyReport(c.Request.Context(), year, month, day)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.reports.Set(key, report)
	c.JSON(http.StatusOK, report)
}

func (s *Server) categorizedExpenses(c *gin.Context) {
	year, month, _, ok := periodParams(c, false)
	if !ok {
		return
	}

	key := fmt.Sprintf("categorized/%d/%d", year, month)
	if cached, hit := s.reports.Get(key); hit {
		c.JSON(http.StatusOK, cached)
		return
	}

	rows, err := s.ledger.CategorizedExpenses(c.Request.Context(), year, month)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.reports.Set(key, rows)
	c.JSON(http.StatusOK, rows)
}
