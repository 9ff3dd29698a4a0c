package fulfillmentserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/go-order-fulfillment/internal/platform/resilience"
)

// BreakerSource reports the circuit breakers a process owns.
type BreakerSource interface {
	Snapshots() []resilience.Snapshot
}

// BreakerAPI exposes breaker state for operators.
type BreakerAPI struct {
	source BreakerSource
}

func NewBreakerAPI(source BreakerSource) *BreakerAPI {
	return &BreakerAPI{source: source}
}

// Get /api/breakers
func (api *BreakerAPI) ListBreakers(c *gin.Context) {
	c.JSON(http.StatusOK, api.source.Snapshots())
}
