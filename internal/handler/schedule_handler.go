package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"habitloop/internal/apperr"
	"habitloop/internal/model"
	"habitloop/internal/recur"
	"habitloop/internal/service/schedule"
)

type ScheduleHandler struct {
	svc    *schedule.Service
	logger *zap.Logger
}

func NewScheduleHandler(svc *schedule.Service, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{svc: svc, logger: logger}
}

type repeatRequest struct {
	Pattern       string `json:"pattern"`
	Weekdays      []int  `json:"weekdays"`
	RepeatDays    *int   `json:"repeat_days"`
	NumberOfWeeks *int   `json:"number_of_weeks"`
}

// toSpec translates the wire shape. Absent horizon fields fall back to the
// defaults inside recur; an explicit zero or negative value is rejected here
// so the service never sees it as "use the default".
func (r repeatRequest) toSpec() (recur.Spec, error) {
	spec := recur.Spec{
		Pattern:  recur.Pattern(r.Pattern),
		Weekdays: r.Weekdays,
	}
	if r.RepeatDays != nil {
		if *r.RepeatDays <= 0 {
			return recur.Spec{}, apperr.InvalidRepeatSpec("repeat_days must be positive")
		}
		spec.RepeatDays = *r.RepeatDays
	}
	if r.NumberOfWeeks != nil {
		if *r.NumberOfWeeks <= 0 {
			return recur.Spec{}, apperr.InvalidRepeatSpec("number_of_weeks must be positive")
		}
		spec.NumberOfWeeks = *r.NumberOfWeeks
	}
	return spec, nil
}

type createScheduleRequest struct {
	HabitID         int           `json:"habit_id" binding:"required"`
	StartTime       time.Time     `json:"start_time" binding:"required"`
	EndTime         *time.Time    `json:"end_time"`
	DurationMinutes *int          `json:"duration_minutes"`
	Repeat          repeatRequest `json:"repeat"`
	Notes           *string       `json:"notes"`
	ParticipantIDs  []int         `json:"participant_ids"`
}

func (h *ScheduleHandler) Create(c *gin.Context) {
	var req createScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Repeat.Pattern == "" {
		req.Repeat.Pattern = string(recur.PatternNone)
	}

	spec, err := req.Repeat.toSpec()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	created, err := h.svc.Create(c.Request.Context(), userID(c), schedule.CreateInput{
		HabitID:         req.HabitID,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: req.DurationMinutes,
		Repeat:          spec,
		Notes:           req.Notes,
		ParticipantIDs:  req.ParticipantIDs,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"schedules": created})
}

func (h *ScheduleHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule id"})
		return
	}

	view, err := h.svc.Get(c.Request.Context(), id, userID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ScheduleHandler) List(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
		return
	}

	views, err := h.svc.List(c.Request.Context(), userID(c), from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": views})
}

type updateScheduleRequest struct {
	Date            *time.Time `json:"date"`
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationMinutes *int       `json:"duration_minutes"`
	Status          *string    `json:"status"`
	Notes           *string    `json:"notes"`
	ParticipantIDs  []int      `json:"participant_ids"`
}

func (h *ScheduleHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule id"})
		return
	}

	var req updateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	in := schedule.UpdateInput{
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		ParticipantIDs:  req.ParticipantIDs,
	}
	if req.Status != nil {
		status := model.ScheduleStatus(*req.Status)
		in.Status = &status
	}

	view, err := h.svc.Update(c.Request.Context(), id, userID(c), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ScheduleHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule id"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, userID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
