package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/poolchaos/personalfit-api/internal/gateway"
	"github.com/poolchaos/personalfit-api/pkg/api"
)

const healthProbeTimeout = 3 * time.Second

type HealthHandler struct {
	gateway gateway.Service
	version string
}

func NewHealthHandler(gatewaySvc gateway.Service, version string) *HealthHandler {
	return &HealthHandler{
		gateway: gatewaySvc,
		version: version,
	}
}

// Health is the liveness probe: the process is up and serving.
//
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

// Ready probes every registered provider. Degraded (some providers
// down) still returns 200 because fallback can route around them; 503
// only when nothing is reachable.
//
// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	results := h.gateway.Health(c.Request.Context(), healthProbeTimeout)

	providers := make(map[string]string, len(results))
	healthy := 0
	for name, err := range results {
		if err == nil {
			providers[name] = "ok"
			healthy++
		} else {
			providers[name] = err.Error()
		}
	}

	status := "ok"
	code := http.StatusOK
	switch {
	case len(results) == 0 || healthy == 0:
		status = "unavailable"
		code = http.StatusServiceUnavailable
	case healthy < len(results):
		status = "degraded"
	}

	c.JSON(code, api.HealthResponse{
		Status:    status,
		Version:   h.version,
		Providers: providers,
	})
}
