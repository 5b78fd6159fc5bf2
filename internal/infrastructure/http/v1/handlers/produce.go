package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"stocksync/internal/domain/produce"
	"stocksync/internal/infrastructure/storage/postgres/produce_repo"
)

// ProduceHandler exposes the production engine over HTTP for manual
// submissions and for inspecting the SQL it runs.
type ProduceHandler struct {
	service *produce.Service
}

// NewProduceHandler creates the handler.
func NewProduceHandler(service *produce.Service) *ProduceHandler {
	return &ProduceHandler{service: service}
}

// Produce accepts an order payload in any of the supported shapes and
// materializes every order it contains.
// POST /api/v1/pachete
func (h *ProduceHandler) Produce(c *gin.Context) {
	orders, err := produce.DecodeOrders(c.Request.Body)
	if err != nil {
		_ = c.Error(err)
		return
	}

	results := make([]*produce.Result, 0, len(orders))
	failed := 0
	for _, order := range orders {
		result, err := h.service.ProduceOrder(c.Request.Context(), order)
		if err != nil {
			failed++
			result = produce.FailureResult(err)
		}
		results = append(results, result)
	}

	// A single-order submission keeps the flat result shape callers of
	// the original endpoint expect.
	if len(results) == 1 {
		status := http.StatusOK
		if failed > 0 {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, results[0])
		return
	}

	status := http.StatusOK
	if failed > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, gin.H{
		"results": results,
		"failed":  failed,
	})
}

// Statements returns the SQL templates the engine executes, for
// inspection and testing without a live database.
// GET /api/v1/pachete/sql
func (h *ProduceHandler) Statements(c *gin.Context) {
	statements := produce_repo.Statements()

	names := make([]string, 0, len(statements))
	for name := range statements {
		names = append(names, name)
	}
	sort.Strings(names)

	c.JSON(http.StatusOK, gin.H{
		"names":      names,
		"statements": statements,
	})
}
