package v1

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shenikar/emergency_response_system/internal/config"
	"github.com/shenikar/emergency_response_system/internal/models"
	"github.com/shenikar/emergency_response_system/internal/service"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	emergencyService service.EmergencyService
	logger           *logrus.Logger
	validate         *validator.Validate
	cfg              *config.Config
}

func NewHandler(emergencyService service.EmergencyService, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		emergencyService: emergencyService,
		logger:           logger,
		validate:         validator.New(),
		cfg:              cfg,
	}
}

// respondError переводит доменные ошибки в HTTP-статусы.
// Ошибки валидации и переходов - 400, отсутствие случая - 404, остальное - 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	var vErr *models.ValidationError
	var transitionErr *models.InvalidTransitionError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error(), "field": vErr.Field})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     transitionErr.Error(),
			"current":   transitionErr.From,
			"requested": transitionErr.To,
		})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "emergency not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// @Summary Report a new emergency
// @Description Report a new medical emergency. Broadcasts new-emergency to the global room.
// @Tags Emergencies
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param emergency body CreateEmergencyRequest true "Emergency report request"
// @Success 201 {object} EmergencyResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /emergencies [post]
func (h *Handler) reportEmergency(c *gin.Context) {
	var input CreateEmergencyRequest
	log := h.logger.WithField("method", "reportEmergency")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	model := DTOToEmergencyModel(input)
	if err := h.emergencyService.ReportEmergency(c.Request.Context(), model); err != nil {
		log.WithError(err).Warn("Failed to report emergency")
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ModelToEmergencyResponse(model))
}

// @Summary Get a list of emergencies
// @Description Get emergencies ordered by creation time descending, optionally filtered by status.
// @Tags Emergencies
// @Accept json
// @Produce json
// @Param status query string false "Status filter, repeatable or comma-separated"
// @Param limit query int false "Maximum number of results" default(50)
// @Success 200 {array} EmergencyResponse
// @Failure 400 {object} map[string]string "Unknown status filter"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /emergencies [get]
func (h *Handler) listEmergencies(c *gin.Context) {
	log := h.logger.WithField("method", "listEmergencies")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	var statuses []models.Status
	for _, raw := range c.QueryArray("status") {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				statuses = append(statuses, models.Status(part))
			}
		}
	}

	emergencies, err := h.emergencyService.ListEmergencies(c.Request.Context(), statuses, limit)
	if err != nil {
		log.WithError(err).Error("Failed to list emergencies from service")
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ModelsToEmergencyResponses(emergencies))
}

// @Summary Get active emergencies
// @Description Get emergencies with status reported, dispatched or in-progress.
// @Tags Emergencies
// @Accept json
// @Produce json
// @Success 200 {array} EmergencyResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /emergencies/active [get]
func (h *Handler) listActiveEmergencies(c *gin.Context) {
	log := h.logger.WithField("method", "listActiveEmergencies")

	emergencies, err := h.emergencyService.ListActiveEmergencies(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list active emergencies from service")
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ModelsToEmergencyResponses(emergencies))
}

// @Summary Find active emergencies near a point
// @Description Find active emergencies within a radius of the given coordinates.
// @Tags Emergencies
// @Accept json
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Param radius_meters query int true "Search radius in meters"
// @Success 200 {array} EmergencyResponse
// @Failure 400 {object} map[string]string "Invalid coordinates or radius"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /emergencies/nearby [get]
func (h *Handler) findNearby(c *gin.Context) {
	log := h.logger.WithField("method", "findNearby")

	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat"})
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lng"})
		return
	}
	radius, err := strconv.Atoi(c.Query("radius_meters"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid radius_meters"})
		return
	}

	emergencies, err := h.emergencyService.FindNearby(c.Request.Context(), lat, lng, radius)
	if err != nil {
		log.WithError(err).Warn("Failed to find nearby emergencies")
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ModelsToEmergencyResponses(emergencies))
}

// @Summary Get emergency counters
// @Description Get the number of emergencies per status.
// @Tags Admin
// @Accept json
// @Produce json
// @Success 200 {object} StatsResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /emergencies/stats [get]
func (h *Handler) getStats(c *gin.Context) {
	log := h.logger.WithField("method", "getStats")

	counts, err := h.emergencyService.GetStats(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to get stats from service")
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, CountsToStatsResponse(counts))
}

// @Summary Get emergency by ID
// @Description Get a single emergency by its ID.
// @Tags Emergencies
// @Accept json
// @Produce json
// @Param id path string true "Emergency ID"
// @Success 200 {object} EmergencyResponse
// @Failure 400 {object} map[string]string "Invalid emergency ID"
// @Failure 404 {object} map[string]string "Emergency not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /emergencies/{id} [get]
func (h *Handler) getEmergency(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid emergency ID"})
		return
	}
	log := h.logger.WithField("method", "getEmergency").WithField("id", id)

	emergency, err := h.emergencyService.GetEmergency(c.Request.Context(), id)
	if err != nil {
		log.WithError(err).Warn("Failed to get emergency from service")
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ModelToEmergencyResponse(emergency))
}

// @Summary Update emergency status
// @Description Perform a status transition. Broadcasts emergency-status-changed to the emergency's room and the global room.
// @Tags Emergencies
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Emergency ID"
// @Param status body UpdateStatusRequest true "Requested status"
// @Success 200 {object} EmergencyResponse
// @Failure 400 {object} map[string]string "Invalid emergency ID, unknown status or illegal transition"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Emergency not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /emergencies/{id}/status [put]
func (h *Handler) updateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid emergency ID"})
		return
	}
	log := h.logger.WithField("method", "updateStatus").WithField("id", id)

	var input UpdateStatusRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	emergency, err := h.emergencyService.UpdateEmergencyStatus(c.Request.Context(), id, models.Status(input.Status))
	if err != nil {
		log.WithError(err).Warn("Failed to update emergency status")
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ModelToEmergencyResponse(emergency))
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
