package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1.
// Мутации закрыты API-ключом, чтение открыто для дашбордов.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	emergencies := api.Group("/emergencies")
	{
		emergencies.GET("", h.listEmergencies)
		emergencies.GET("/active", h.listActiveEmergencies)
		emergencies.GET("/nearby", h.findNearby)
		emergencies.GET("/stats", h.getStats)
		emergencies.GET("/:id", h.getEmergency)

		protected := emergencies.Group("", APIKeyAuthMiddleware(h.cfg, h.logger))
		{
			protected.POST("", h.reportEmergency)
			protected.PUT("/:id/status", h.updateStatus)
		}
	}

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)
}
