package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"habitloop/internal/service/progress"
)

type ProgressHandler struct {
	svc    *progress.Service
	logger *zap.Logger
}

func NewProgressHandler(svc *progress.Service, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{svc: svc, logger: logger}
}

type createProgressRequest struct {
	ScheduleID  int       `json:"schedule_id" binding:"required"`
	Date        time.Time `json:"date" binding:"required"`
	LoggedTime  *int      `json:"logged_time"`
	Notes       *string   `json:"notes"`
	IsCompleted bool      `json:"is_completed"`
}

func (h *ProgressHandler) Create(c *gin.Context) {
	var req createProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, err := h.svc.Create(c.Request.Context(), userID(c), progress.CreateInput{
		ScheduleID:  req.ScheduleID,
		Date:        req.Date,
		LoggedTime:  req.LoggedTime,
		Notes:       req.Notes,
		IsCompleted: req.IsCompleted,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

type updateProgressRequest struct {
	Date        *time.Time `json:"date"`
	LoggedTime  *int       `json:"logged_time"`
	Notes       *string    `json:"notes"`
	IsCompleted *bool      `json:"is_completed"`
}

func (h *ProgressHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid progress id"})
		return
	}

	var req updateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, err := h.svc.Update(c.Request.Context(), id, userID(c), progress.UpdateInput{
		Date:        req.Date,
		LoggedTime:  req.LoggedTime,
		Notes:       req.Notes,
		IsCompleted: req.IsCompleted,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProgressHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid progress id"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, userID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
