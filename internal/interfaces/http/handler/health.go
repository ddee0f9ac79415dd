package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rtmanagement/backend/internal/infrastructure/logger"
	"github.com/rtmanagement/backend/internal/interfaces/http/dto"
	"github.com/rtmanagement/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Pinger checks a backing dependency
type Pinger interface {
	Ping() error
}

// HealthHandler reports whether the service can reach its database
type HealthHandler struct {
	BaseHandler
	db Pinger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, dto.Response{
			OK:   false,
			Data: dto.HealthResponse{Status: "unhealthy", Database: "unreachable"},
			Error: &dto.ErrorInfo{
				Code:      dto.ErrCodeUnavailable,
				Message:   "Database is unreachable",
				RequestID: middleware.GetRequestID(c),
			},
		})
		return
	}
	h.Success(c, dto.HealthResponse{Status: "healthy", Database: "ok"})
}
