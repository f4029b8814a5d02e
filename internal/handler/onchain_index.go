package handler

import (
	"errors"
	"net/http"

	"onchain-index/internal/domain"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// GetOnChainIndex runs one indicator collection and returns the report rows.
func (h *Handler) GetOnChainIndex(c *gin.Context) {
	if h.collector == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-onchain-index")
	defer span.End()

	h.collectMu.Lock()
	snap, err := h.collector.Collect(ctx)
	h.collectMu.Unlock()
	if err != nil {
		log.Error("onchain index collection failed", "err", err)
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rows":          snap.Rows(),
		"onchain_index": snap.OnChainIndex,
		"fetched_at":    snap.FetchedAt,
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAuth):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrScrapeTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
