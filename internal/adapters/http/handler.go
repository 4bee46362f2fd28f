package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/instanthelp/dispatch/internal/domain/models"
	"github.com/instanthelp/dispatch/internal/domain/ports"
	"github.com/instanthelp/dispatch/internal/domain/service"
)

// Handler handles HTTP requests for the dispatch service
type Handler struct {
	dispatchService ports.DispatchService
	adapter         ports.DatabaseAdapter
}

// NewHandler creates a new HTTP handler
func NewHandler(dispatchService ports.DispatchService, adapter ports.DatabaseAdapter) *Handler {
	return &Handler{
		dispatchService: dispatchService,
		adapter:         adapter,
	}
}

// ReportEmergency handles POST /emergencies
// @Summary Reports a new emergency and runs the assignment engine
// @Success 201 {object} models.Emergency
// @Failure 400 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /emergencies [post]
func (h *Handler) ReportEmergency(c *gin.Context) {
	var req ReportEmergencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ProblemDetails{
			Type:   "about:blank",
			Title:  "Bad Request",
			Status: http.StatusBadRequest,
			Detail: err.Error(),
		})
		return
	}

	report := &ports.EmergencyReport{
		UserName:     req.UserName,
		MobileNumber: req.MobileNumber,
		Location: models.Location{
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
			Accuracy:  req.Accuracy,
		},
		Address:       req.Address,
		EmergencyType: models.EmergencyType(req.EmergencyType),
		Description:   req.Description,
	}
	if req.Severity != nil {
		severity := models.Severity(*req.Severity)
		report.Severity = &severity
	}

	emergency, err := h.dispatchService.ReportEmergency(c.Request.Context(), report)
	if err != nil {
		h.writeError(c, err, "Failed to report emergency")
		return
	}

	c.JSON(http.StatusCreated, emergency)
}

// GetEmergency handles GET /emergencies/:id
func (h *Handler) GetEmergency(c *gin.Context) {
	emergency, err := h.dispatchService.GetEmergency(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "Failed to retrieve emergency")
		return
	}
	c.JSON(http.StatusOK, emergency)
}

// ListEmergencies handles GET /emergencies
func (h *Handler) ListEmergencies(c *gin.Context) {
	var filter ports.EmergencyFilter
	if statusParam := c.Query("status"); statusParam != "" {
		status := models.EmergencyStatus(statusParam)
		if err := models.ValidateEmergencyStatus(status); err != nil {
			c.JSON(http.StatusBadRequest, ProblemDetails{
				Type:   "about:blank",
				Title:  "Bad Request",
				Status: http.StatusBadRequest,
				Detail: "unknown status: " + statusParam,
			})
			return
		}
		filter.Status = &status
	}
	if departmentParam := c.Query("department"); departmentParam != "" {
		department := models.Department(departmentParam)
		filter.Department = &department
	}

	offset := intQuery(c, "offset", 0)
	limit := intQuery(c, "limit", 100)

	emergencies, err := h.dispatchService.ListEmergencies(c.Request.Context(), filter, offset, limit)
	if err != nil {
		h.writeError(c, err, "Failed to list emergencies")
		return
	}

	c.JSON(http.StatusOK, ListEmergenciesResponse{
		Emergencies: emergencies,
		Count:       len(emergencies),
	})
}

// UpdateStatus handles PATCH /emergencies/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ProblemDetails{
			Type:   "about:blank",
			Title:  "Bad Request",
			Status: http.StatusBadRequest,
			Detail: err.Error(),
		})
		return
	}

	update := &ports.StatusUpdateRequest{
		EmergencyID: c.Param("id"),
		Target:      models.EmergencyStatus(req.Status),
		ActorName:   req.ActorName,
		Notes:       req.Notes,
	}
	if req.Department != nil {
		department := models.Department(*req.Department)
		update.Department = &department
	}

	emergency, err := h.dispatchService.UpdateStatus(c.Request.Context(), update)
	if err != nil {
		h.writeError(c, err, "Failed to update emergency status")
		return
	}

	c.JSON(http.StatusOK, emergency)
}

// Dispatch handles POST /emergencies/:id/dispatch. Re-running assignment
// for an already-covered emergency is a no-op.
func (h *Handler) Dispatch(c *gin.Context) {
	result, err := h.dispatchService.Assign(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "Failed to dispatch units")
		return
	}

	c.JSON(http.StatusOK, DispatchResponse{
		Emergency: result.Emergency,
		Reserved:  result.Reserved,
		Deferred:  result.Deferred,
	})
}

// History handles GET /emergencies/:id/log
func (h *Handler) History(c *gin.Context) {
	emergencyID := c.Param("id")
	entries, err := h.dispatchService.History(c.Request.Context(), emergencyID)
	if err != nil {
		h.writeError(c, err, "Failed to retrieve emergency history")
		return
	}

	c.JSON(http.StatusOK, HistoryResponse{
		EmergencyID: emergencyID,
		Entries:     entries,
	})
}

// ListUnits handles GET /units
func (h *Handler) ListUnits(c *gin.Context) {
	var filter ports.UnitFilter
	if departmentParam := c.Query("department"); departmentParam != "" {
		department := models.Department(departmentParam)
		filter.Department = &department
	}
	if typeParam := c.Query("unit_type"); typeParam != "" {
		unitType := models.UnitType(typeParam)
		filter.UnitType = &unitType
	}
	if statusParam := c.Query("status"); statusParam != "" {
		status := models.UnitStatus(statusParam)
		filter.Status = &status
	}

	units, err := h.dispatchService.ListUnits(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err, "Failed to list units")
		return
	}

	c.JSON(http.StatusOK, ListUnitsResponse{
		Units: units,
		Count: len(units),
	})
}

// UpdateUnitStatus handles PATCH /units/:id/status
func (h *Handler) UpdateUnitStatus(c *gin.Context) {
	var req UpdateUnitStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ProblemDetails{
			Type:   "about:blank",
			Title:  "Bad Request",
			Status: http.StatusBadRequest,
			Detail: err.Error(),
		})
		return
	}

	unit, err := h.dispatchService.SetUnitStatus(c.Request.Context(), c.Param("id"), models.UnitStatus(req.Status))
	if err != nil {
		h.writeError(c, err, "Failed to update unit status")
		return
	}

	c.JSON(http.StatusOK, unit)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	if h.adapter != nil {
		if err := h.adapter.Ping(c.Request.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{
		"status":  status,
		"service": "dispatch",
	})
}

// writeError maps domain errors onto RFC 7807 responses
func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	var transitionErr *models.TransitionError
	if errors.As(err, &transitionErr) {
		c.JSON(http.StatusConflict, ProblemDetails{
			Type:   "about:blank",
			Title:  "Invalid Transition",
			Status: http.StatusConflict,
			Detail: err.Error(),
			From:   string(transitionErr.From),
			To:     string(transitionErr.To),
		})
		return
	}

	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, ProblemDetails{
			Type:   "about:blank",
			Title:  "Bad Request",
			Status: http.StatusBadRequest,
			Detail: err.Error(),
		})
	case errors.Is(err, ports.ErrEmergencyNotFound), errors.Is(err, ports.ErrUnitNotFound):
		c.JSON(http.StatusNotFound, ProblemDetails{
			Type:   "about:blank",
			Title:  "Not Found",
			Status: http.StatusNotFound,
			Detail: err.Error(),
		})
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, ports.ErrUnitStateConflict),
		errors.Is(err, ports.ErrVersionConflict):
		c.JSON(http.StatusConflict, ProblemDetails{
			Type:   "about:blank",
			Title:  "Conflict",
			Status: http.StatusConflict,
			Detail: err.Error(),
		})
	case errors.Is(err, service.ErrStorage):
		c.JSON(http.StatusServiceUnavailable, ProblemDetails{
			Type:   "about:blank",
			Title:  "Service Unavailable",
			Status: http.StatusServiceUnavailable,
			Detail: "storage backend unavailable, retry later",
		})
	default:
		c.JSON(http.StatusInternalServerError, ProblemDetails{
			Type:   "about:blank",
			Title:  "Internal Server Error",
			Status: http.StatusInternalServerError,
			Detail: fallback,
		})
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
