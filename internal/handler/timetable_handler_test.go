package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type timetableServiceMock struct {
	solveResp    *dto.SolveResponse
	solveErr     error
	moveResp     *dto.MoveResponse
	moveErr      error
	lastSolveReq dto.SolveRequest
	solveCalled  bool
	moveCalled   bool
}

func (m *timetableServiceMock) Solve(ctx context.Context, req dto.SolveRequest) (*dto.SolveResponse, error) {
	m.solveCalled = true
	m.lastSolveReq = req
	return m.solveResp, m.solveErr
}

func (m *timetableServiceMock) JobStatus(ctx context.Context, jobID string) (*dto.SolveJobStatus, error) {
	return &dto.SolveJobStatus{JobID: jobID, Status: service.StatePending}, nil
}

func (m *timetableServiceMock) List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntry, error) {
	return nil, nil
}

func (m *timetableServiceMock) Conflicts(ctx context.Context) ([]models.ConflictReport, error) {
	return nil, nil
}

func (m *timetableServiceMock) ValidateMove(ctx context.Context, entryID string, req dto.MoveRequest) (*dto.MoveResponse, error) {
	return m.moveResp, m.moveErr
}

func (m *timetableServiceMock) ApplyMove(ctx context.Context, entryID string, req dto.MoveRequest) (*dto.MoveResponse, error) {
	m.moveCalled = true
	return m.moveResp, m.moveErr
}

func (m *timetableServiceMock) SetLocked(ctx context.Context, entryID string, locked bool) error {
	return nil
}

func (m *timetableServiceMock) DeleteEntry(ctx context.Context, entryID string) error {
	return nil
}

func TestTimetableHandlerSolveFeasible(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{
		solveResp: &dto.SolveResponse{State: "FEASIBLE", Stats: &dto.SolveStats{Solutions: 1}},
	}
	handler := NewTimetableHandler(mockSvc)

	payload, _ := json.Marshal(dto.SolveRequest{TimeLimitSeconds: 30})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/timetable/solve", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Solve(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.solveCalled)
	assert.Equal(t, 30, mockSvc.lastSolveReq.TimeLimitSeconds)
}

func TestTimetableHandlerSolveUnsolvableAnswers422(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{
		solveResp: &dto.SolveResponse{
			State:     service.StateUnsolvable,
			Conflicts: []models.ConflictReport{{Family: "PERIOD_FULFILLMENT", Message: "no teacher allocated"}},
		},
	}
	handler := NewTimetableHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/timetable/solve", nil)
	c.Request = req

	handler.Solve(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "PERIOD_FULFILLMENT")
}

func TestTimetableHandlerSolveAsyncAnswers202(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{
		solveResp: &dto.SolveResponse{State: service.StatePending, JobID: "job-1"},
	}
	handler := NewTimetableHandler(mockSvc)

	payload, _ := json.Marshal(dto.SolveRequest{Async: true})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/timetable/solve", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Solve(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "job-1")
}

func TestTimetableHandlerSolveConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{solveErr: appErrors.ErrSolveInProgress}
	handler := NewTimetableHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/timetable/solve", nil)
	c.Request = req

	handler.Solve(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestTimetableHandlerMoveRejectedAnswers422(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{
		moveResp: &dto.MoveResponse{
			Allowed:    false,
			Violations: []dto.MoveViolation{{Family: "TEACHER_DOUBLE_BOOKING", Message: "teacher already teaches at this slot"}},
		},
	}
	handler := NewTimetableHandler(mockSvc)

	payload, _ := json.Marshal(dto.MoveRequest{DayIndex: 0, PeriodIndex: 1})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/timetable/entries/e1/move", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "e1"}}

	handler.Move(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.True(t, mockSvc.moveCalled)
	assert.Contains(t, w.Body.String(), "TEACHER_DOUBLE_BOOKING")
}

func TestTimetableHandlerMoveInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(&timetableServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/timetable/entries/e1/move", bytes.NewBufferString(`{"day_index":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "e1"}}

	handler.Move(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
