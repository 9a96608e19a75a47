package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhub/internal/feedback"
)

func (h *Handler) submitFeedback(c *gin.Context) {
	var req struct {
		EventID string `json:"eventId" binding:"required"`
		Message string `json:"message" binding:"required"`
		Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	}
	if !bindJSON(c, &req) {
		return
	}
	f, err := h.feedback.Submit(c.Request.Context(), principal(c), feedback.SubmitInput{
		EventID: req.EventID,
		Message: req.Message,
		Rating:  req.Rating,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Feedback submitted successfully", "feedback": f})
}

func (h *Handler) feedbackRecords(c *gin.Context) {
	list, err := h.feedback.Records(c.Request.Context(), principal(c), c.Query("eventId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) setFeedbackForm(c *gin.Context) {
	var req struct {
		FormID string `json:"formId" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	eventID := c.Param("eventId")
	if err := h.feedback.SetForm(c.Request.Context(), principal(c), eventID, req.FormID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"eventId": eventID, "formId": req.FormID})
}

func (h *Handler) feedbackForm(c *gin.Context) {
	eventID := c.Param("eventId")
	formID, err := h.feedback.Form(c.Request.Context(), principal(c), eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"eventId": eventID, "formId": formID})
}
