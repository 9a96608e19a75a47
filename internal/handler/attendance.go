package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhub/internal/attendance"
)

type checkInRequest struct {
	StudentID string `json:"studentId" binding:"required"`
	FullName  string `json:"fullName" binding:"required"`
	YearLevel string `json:"yearLevel" binding:"required"`
	Course    string `json:"course" binding:"required"`
	Title     string `json:"title"`
	Event     string `json:"event"`
}

type checkOutRequest struct {
	StudentID string `json:"studentId" binding:"required"`
	Title     string `json:"title"`
	Event     string `json:"event"`
}

func (h *Handler) checkIn(c *gin.Context) {
	var req checkInRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.attendance.CheckIn(c.Request.Context(), principal(c), attendance.CheckInInput{
		StudentID: req.StudentID,
		FullName:  req.FullName,
		YearLevel: req.YearLevel,
		Course:    req.Course,
		Title:     req.Title,
		Event:     req.Event,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) checkOut(c *gin.Context) {
	res, err := h.attendance.CheckOut(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) checkOutOpen(c *gin.Context) {
	var req checkOutRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.attendance.CheckOutOpen(c.Request.Context(), principal(c), req.StudentID, req.Event, req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) allAttendance(c *gin.Context) {
	list, err := h.attendance.AllRecords(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) studentAttendance(c *gin.Context) {
	list, err := h.attendance.ByStudent(c.Request.Context(), principal(c), c.Param("studentId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
