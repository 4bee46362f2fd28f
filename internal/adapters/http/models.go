package http

import "github.com/instanthelp/dispatch/internal/domain/models"

// ProblemDetails represents an error response following RFC 7807
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title,omitempty"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	From     string `json:"from,omitempty"` // rejected transition source state
	To       string `json:"to,omitempty"`   // rejected transition target state
}

// ReportEmergencyRequest represents the intake payload for a new emergency
type ReportEmergencyRequest struct {
	UserName      string   `json:"user_name" binding:"required"`
	MobileNumber  string   `json:"mobile_number" binding:"required"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	Accuracy      *float64 `json:"accuracy,omitempty"`
	Address       *string  `json:"address,omitempty"`
	EmergencyType string   `json:"emergency_type" binding:"required"`
	Description   *string  `json:"description,omitempty"`
	Severity      *string  `json:"severity,omitempty"`
}

// UpdateStatusRequest represents a requested lifecycle transition
type UpdateStatusRequest struct {
	Status     string  `json:"status" binding:"required"`
	ActorName  *string `json:"actor_name,omitempty"`
	Department *string `json:"department,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// UpdateUnitStatusRequest represents an operator unit state change
type UpdateUnitStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// DispatchResponse represents the outcome of one assignment engine run
type DispatchResponse struct {
	Emergency *models.Emergency       `json:"emergency"`
	Reserved  []models.UnitAssignment `json:"reserved"`
	Deferred  []models.UnitType       `json:"deferred,omitempty"`
}

// ListEmergenciesResponse wraps an emergency listing
type ListEmergenciesResponse struct {
	Emergencies []*models.Emergency `json:"emergencies"`
	Count       int                 `json:"count"`
}

// ListUnitsResponse wraps a unit listing
type ListUnitsResponse struct {
	Units []*models.ResponseUnit `json:"units"`
	Count int                    `json:"count"`
}

// HistoryResponse wraps an emergency audit trail
type HistoryResponse struct {
	EmergencyID string               `json:"emergency_id"`
	Entries     []*models.AuditEntry `json:"entries"`
}
