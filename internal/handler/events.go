package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"eventhub/internal/events"
)

type createEventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description" binding:"required"`
	Date        time.Time `json:"date" binding:"required"`
	Location    string    `json:"location"`
	Venue       string    `json:"venue"`
	FeedbackURL string    `json:"feedbackUrl"`
}

type updateEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Date        *time.Time `json:"date"`
	Location    *string    `json:"location"`
	Venue       *string    `json:"venue"`
	FeedbackURL *string    `json:"feedbackUrl"`
}

func (h *Handler) listEvents(c *gin.Context) {
	list, err := h.events.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) getEvent(c *gin.Context) {
	e, err := h.events.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) createEvent(c *gin.Context) {
	var req createEventRequest
	if !bindJSON(c, &req) {
		return
	}
	location := req.Location
	if location == "" {
		location = req.Venue
	}
	e, err := h.events.Create(c.Request.Context(), principal(c), events.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Location:    location,
		FeedbackURL: req.FeedbackURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Event created successfully", "event": e})
}

func (h *Handler) updateEvent(c *gin.Context) {
	var req updateEventRequest
	if !bindJSON(c, &req) {
		return
	}
	location := req.Location
	if location == nil {
		location = req.Venue
	}
	e, err := h.events.Update(c.Request.Context(), principal(c), c.Param("id"), events.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Location:    location,
		FeedbackURL: req.FeedbackURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) setEventStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	e, err := h.events.SetStatus(c.Request.Context(), principal(c), c.Param("id"), events.Status(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event status updated", "event": e})
}

func (h *Handler) approveEvent(c *gin.Context) {
	e, err := h.events.Approve(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event approved successfully", "event": e})
}

func (h *Handler) eventQR(c *gin.Context) {
	qr, err := h.events.CheckInQR(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, qr)
}

func (h *Handler) deleteEvent(c *gin.Context) {
	if err := h.events.Delete(c.Request.Context(), principal(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}
