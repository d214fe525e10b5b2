package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"scv_loans/pkg/circuitbreaker"
	"scv_loans/pkg/scv"
)

// getCustomers and getMovies serve the cached dropdown lists. refresh=true
// drops the cached entry first.
func (g *gateway) getCustomers(c *gin.Context) {
	g.refreshCatalog(c, catalogCustomers)
	c.JSON(http.StatusOK, g.customers(c.Request.Context()))
}

func (g *gateway) getMovies(c *gin.Context) {
	g.refreshCatalog(c, catalogMovies)
	c.JSON(http.StatusOK, g.movies(c.Request.Context()))
}

func (g *gateway) refreshCatalog(c *gin.Context, name string) {
	if c.Query("refresh") != "true" {
		return
	}
	if err := g.catalog.Invalidate(c.Request.Context(), name); err != nil {
		g.logger.Warn("failed to invalidate catalog cache", zap.String("name", name), zap.Error(err))
	}
}

// getLoans answers from the local loan list, loading it from the API the
// first time or when refresh=true is passed.
func (g *gateway) getLoans(c *gin.Context) {
	loans, loaded := g.loans.snapshot()
	if loaded && c.Query("refresh") != "true" {
		c.JSON(http.StatusOK, loans)
		return
	}

	fetched, err := g.api.Emprestimos(c.Request.Context())
	if err != nil {
		g.logger.Warn("failed to load loans", zap.Error(err))
		c.JSON(scv.StatusCode(err), gin.H{"message": scv.ErrorMessage(err, scv.FallbackLoad)})
		return
	}
	g.loans.replace(fetched)
	loans, _ = g.loans.snapshot()
	c.JSON(http.StatusOK, loans)
}

func (g *gateway) deleteLoan(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid loan id"})
		return
	}
	if err := g.api.DeleteEmprestimo(c.Request.Context(), uint(id)); err != nil {
		c.JSON(scv.StatusCode(err), gin.H{"message": scv.ErrorMessage(err, scv.FallbackDelete)})
		return
	}
	g.loans.remove(uint(id))
	c.Status(http.StatusNoContent)
}

type breakerStater interface {
	BreakerState() circuitbreaker.State
}

func (g *gateway) healthCheck(c *gin.Context) {
	details := gin.H{"status": "UP"}
	if b, ok := g.api.(breakerStater); ok {
		state := b.BreakerState()
		details["circuitBreaker"] = state.String()
		if state == circuitbreaker.StateOpen {
			details["status"] = "DEGRADED"
		}
	}
	c.JSON(http.StatusOK, details)
}
