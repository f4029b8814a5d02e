package handler

import (
	"context"
	"sync"

	"onchain-index/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type SnapshotCollector interface {
	Collect(ctx context.Context) (*domain.IndicatorSnapshot, error)
}

type Handler struct {
	tracer    trace.Tracer
	collector SnapshotCollector

	// collectMu keeps collections sequential across concurrent requests.
	collectMu sync.Mutex
}

func New(tracer trace.Tracer, collector SnapshotCollector) *Handler {
	return &Handler{
		tracer:    tracer,
		collector: collector,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/onchain-index", h.GetOnChainIndex)
}
