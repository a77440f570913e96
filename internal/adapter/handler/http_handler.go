package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/order-console/internal/core/domain"
)

// StatusSource is what the status endpoints report on; the synchronizer
// satisfies it.
type StatusSource interface {
	Scope() domain.Scope
	Health() (time.Time, error)
	Buckets() domain.Buckets
}

type HTTPHandler struct {
	source  StatusSource
	metrics http.Handler
}

type HealthHTTPResponse struct {
	Status      string     `json:"status"`
	Scope       string     `json:"scope"`
	LastRefresh *time.Time `json:"last_refresh,omitempty"`
	Error       string     `json:"error,omitempty"`
}

type OrdersHTTPResponse struct {
	Pending    []domain.Order `json:"pending"`
	Processing []domain.Order `json:"processing"`
	Completed  []domain.Order `json:"completed"`
	Other      []domain.Order `json:"other,omitempty"`
}

func NewHTTPHandler(source StatusSource, metrics http.Handler) *HTTPHandler {
	return &HTTPHandler{source: source, metrics: metrics}
}

// NewRouter returns a gin engine serving the status endpoints.
func NewRouter(h *HTTPHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", h.HealthCheck)
	r.GET("/orders", h.Orders)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}
	return r
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	refreshedAt, err := h.source.Health()
	resp := HealthHTTPResponse{Status: "ok", Scope: h.source.Scope().String()}
	if !refreshedAt.IsZero() {
		resp.LastRefresh = &refreshedAt
	}

	switch {
	case err != nil:
		resp.Status = "degraded"
		resp.Error = err.Error()
		c.JSON(http.StatusServiceUnavailable, resp)
	case refreshedAt.IsZero():
		resp.Status = "starting"
		c.JSON(http.StatusServiceUnavailable, resp)
	default:
		c.JSON(http.StatusOK, resp)
	}
}

func (h *HTTPHandler) Orders(c *gin.Context) {
	b := h.source.Buckets()
	c.JSON(http.StatusOK, OrdersHTTPResponse{
		Pending:    nonNil(b.Pending),
		Processing: nonNil(b.Processing),
		Completed:  nonNil(b.Completed),
		Other:      b.Other,
	})
}

func nonNil(orders []domain.Order) []domain.Order {
	if orders == nil {
		return []domain.Order{}
	}
	return orders
}
