package collector

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/heaplab/internal/metrics"
)

// RegisterRoutes registers the run-logging API on r.
func RegisterRoutes(r gin.IRoutes, h *Handlers) {
	r.POST("/createRun", h.HandleCreateRun)
	r.POST("/updateRun", h.HandleUpdateRun)
	r.GET("/complete/:id", h.HandleComplete)
	r.GET("/runs", h.HandleListRuns)
	r.GET("/runs/:id", h.HandleGetRun)
	r.GET("/healthz", h.HandleHealth)
}

// NewRouter builds the service router. m counts requests; g backs
// /metrics. Either may be nil.
func NewRouter(h *Handlers, m *metrics.Metrics, g prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestMetrics(m))
	RegisterRoutes(r, h)
	if g != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
	}
	return r
}

// requestMetrics counts requests by matched route and status code.
func requestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(route, c.Writer.Status())
	}
}
