// README: Pay-quote handler; suggests pay before a job is posted.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"laborhub/internal/modules/payquote"
)

type QuoteHandler struct {
	quotes *payquote.Service
}

func NewQuoteHandler(svc *payquote.Service) *QuoteHandler {
	return &QuoteHandler{quotes: svc}
}

type quoteReq struct {
	Category       string   `json:"service_category" binding:"required"`
	Hours          float64  `json:"hours"`
	RequiredSkills []string `json:"required_skills"`
	Urgent         bool     `json:"urgent"`
}

func (h *QuoteHandler) Quote(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.quotes.Quote(c.Request.Context(), payquote.QuoteRequest{
		Category:       req.Category,
		Hours:          req.Hours,
		RequiredSkills: req.RequiredSkills,
		Urgent:         req.Urgent,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"amount":    res.Amount,
		"currency":  res.Currency,
		"breakdown": res.Breakdown,
	})
}
