package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

// TimetableUseCase is the service surface the timetable handler depends on.
type TimetableUseCase interface {
	Solve(ctx context.Context, req dto.SolveRequest) (*dto.SolveResponse, error)
	JobStatus(ctx context.Context, jobID string) (*dto.SolveJobStatus, error)
	List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntry, error)
	Conflicts(ctx context.Context) ([]models.ConflictReport, error)
	ValidateMove(ctx context.Context, entryID string, req dto.MoveRequest) (*dto.MoveResponse, error)
	ApplyMove(ctx context.Context, entryID string, req dto.MoveRequest) (*dto.MoveResponse, error)
	SetLocked(ctx context.Context, entryID string, locked bool) error
	DeleteEntry(ctx context.Context, entryID string) error
}

// TimetableHandler exposes the solver and timetable editing endpoints.
type TimetableHandler struct {
	service TimetableUseCase
}

// NewTimetableHandler constructs a timetable handler.
func NewTimetableHandler(svc TimetableUseCase) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Solve godoc
// @Summary Generate a timetable
// @Description Runs the constraint solver. An unsolvable configuration answers 422 with conflict reports.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.SolveRequest false "Solve options"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetable/solve [post]
func (h *TimetableHandler) Solve(c *gin.Context) {
	var req dto.SolveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}

	res, err := h.service.Solve(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	switch res.State {
	case service.StatePending:
		response.JSON(c, http.StatusAccepted, res, nil)
	case service.StateUnsolvable:
		response.JSON(c, http.StatusUnprocessableEntity, res, nil)
	default:
		response.JSON(c, http.StatusOK, res, nil)
	}
}

// JobStatus godoc
// @Summary Get solve job status
// @Tags Timetable
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/jobs/{id} [get]
func (h *TimetableHandler) JobStatus(c *gin.Context) {
	status, err := h.service.JobStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// List godoc
// @Summary List timetable entries
// @Tags Timetable
// @Produce json
// @Param class_id query string false "Filter by class"
// @Param teacher_id query string false "Filter by teacher"
// @Param room_id query string false "Filter by room"
// @Param day query int false "Filter by day index"
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) List(c *gin.Context) {
	var filter models.TimetableFilter
	filter.ClassID = c.Query("class_id")
	filter.TeacherID = c.Query("teacher_id")
	filter.RoomID = c.Query("room_id")
	if raw := c.Query("day"); raw != "" {
		if day, err := strconv.Atoi(raw); err == nil {
			filter.DayIndex = &day
		}
	}

	entries, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Conflicts godoc
// @Summary List conflict reports from the latest failed solve
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/conflicts [get]
func (h *TimetableHandler) Conflicts(c *gin.Context) {
	reports, err := h.service.Conflicts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// ValidateMove godoc
// @Summary Validate a manual timetable edit
// @Description Dry-run check of moving one entry. The verdict lists every broken rule.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body dto.MoveRequest true "Move payload"
// @Success 200 {object} response.Envelope
// @Router /timetable/entries/{id}/validate-move [post]
func (h *TimetableHandler) ValidateMove(c *gin.Context) {
	var req dto.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	verdict, err := h.service.ValidateMove(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, verdict, nil)
}

// Move godoc
// @Summary Move a timetable entry
// @Description Applies the move when every rule passes, otherwise answers 422 with the violations.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body dto.MoveRequest true "Move payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetable/entries/{id}/move [post]
func (h *TimetableHandler) Move(c *gin.Context) {
	var req dto.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	verdict, err := h.service.ApplyMove(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !verdict.Allowed {
		response.JSON(c, http.StatusUnprocessableEntity, verdict, nil)
		return
	}
	response.JSON(c, http.StatusOK, verdict, nil)
}

// Lock godoc
// @Summary Lock a timetable entry
// @Description Locked entries survive regeneration as fixed placements.
// @Tags Timetable
// @Produce json
// @Param id path string true "Entry ID"
// @Success 204
// @Router /timetable/entries/{id}/lock [post]
func (h *TimetableHandler) Lock(c *gin.Context) {
	if err := h.service.SetLocked(c.Request.Context(), c.Param("id"), true); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Unlock godoc
// @Summary Unlock a timetable entry
// @Tags Timetable
// @Produce json
// @Param id path string true "Entry ID"
// @Success 204
// @Router /timetable/entries/{id}/unlock [post]
func (h *TimetableHandler) Unlock(c *gin.Context) {
	if err := h.service.SetLocked(c.Request.Context(), c.Param("id"), false); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteEntry godoc
// @Summary Delete a timetable entry
// @Tags Timetable
// @Produce json
// @Param id path string true "Entry ID"
// @Success 204
// @Router /timetable/entries/{id} [delete]
func (h *TimetableHandler) DeleteEntry(c *gin.Context) {
	if err := h.service.DeleteEntry(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
