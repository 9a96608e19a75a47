package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhub/internal/auth"
)

func (h *Handler) pendingUsers(c *gin.Context) {
	list, err := h.users.ListPending(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) allUsers(c *gin.Context) {
	list, err := h.users.ListAll(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) userStats(c *gin.Context) {
	st, err := h.users.Stats(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) approveUser(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required,oneof=student officer"`
	}
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.users.Approve(c.Request.Context(), principal(c), c.Param("id"), auth.Role(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User approved successfully", "user": u})
}

func (h *Handler) archiveUser(c *gin.Context) {
	u, err := h.users.Archive(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User archived successfully", "user": u})
}

func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), principal(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
