package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) analyticsOverview(c *gin.Context) {
	o, err := h.analytics.Overview(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) analyticsEvents(c *gin.Context) {
	list, err := h.analytics.Events(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) analyticsDemographics(c *gin.Context) {
	d, err := h.analytics.Demographics(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
