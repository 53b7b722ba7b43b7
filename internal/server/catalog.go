package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListInsurers(c *gin.Context) {
	items, err := s.catalogRepo.ListActiveInsurers(c.Request.Context(), s.db)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) ListProducts(c *gin.Context) {
	items, err := s.catalogRepo.ListActiveRuleProducts(c.Request.Context(), s.db)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) ListCoverages(c *gin.Context) {
	items, err := s.catalogRepo.ListCoverages(c.Request.Context(), s.db)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
