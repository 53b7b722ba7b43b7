package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	quotedomain "github.com/polizaflow/cotiza/internal/quote/domain"
)

type createQuoteRequest struct {
	Origin      quotedomain.Origin    `json:"origin"`
	QuoteType   quotedomain.QuoteType `json:"quote_type"`
	ValidFrom   string                `json:"valid_from"`
	ValidTo     string                `json:"valid_to"`
	PaymentForm string                `json:"payment_form"`
	Notes       string                `json:"notes"`
	Deductible  string                `json:"deductible"`
	Client      map[string]any        `json:"client"`
	Vehicle     map[string]any        `json:"vehicle"`
	Driver      map[string]any        `json:"driver"`
	Quote       map[string]any        `json:"quote"`
}

func (s *Server) CreateQuote(c *gin.Context) {
	var req createQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.quoteSvc.Create(c.Request.Context(), quotedomain.CreateRequest{
		Origin:      req.Origin,
		QuoteType:   req.QuoteType,
		ValidFrom:   strings.TrimSpace(req.ValidFrom),
		ValidTo:     strings.TrimSpace(req.ValidTo),
		PaymentForm: strings.TrimSpace(req.PaymentForm),
		Notes:       req.Notes,
		Deductible:  strings.TrimSpace(req.Deductible),
		Client:      req.Client,
		Vehicle:     req.Vehicle,
		Driver:      req.Driver,
		Quote:       req.Quote,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetQuote(c *gin.Context) {
	resp, err := s.quoteSvc.Get(c.Request.Context(), quotedomain.GetRequest{
		ID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type selectItemRequest struct {
	ItemID string `json:"item_id"`
}

func (s *Server) SelectQuoteItem(c *gin.Context) {
	var req selectItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.ItemID) == "" {
		AbortWithError(c, newValidationError("item_id", "invalid_id", "invalid value"))
		return
	}

	resp, err := s.quoteSvc.SelectItem(c.Request.Context(), quotedomain.SelectItemRequest{
		QuoteID: c.Param("id"),
		ItemID:  strings.TrimSpace(req.ItemID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
