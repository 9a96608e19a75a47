package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"eventhub/internal/apperr"
	"eventhub/internal/auth"
	"eventhub/internal/users"
)

type signupRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FullName  string `json:"fullName" binding:"required"`
	Role      string `json:"role" binding:"omitempty,oneof=student officer"`
	StudentID string `json:"studentId"`
	Course    string `json:"course"`
	YearLevel string `json:"yearLevel"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	ExpiresAt    time.Time  `json:"expiresAt"`
	User         users.User `json:"user"`
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.users.Signup(c.Request.Context(), users.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FullName:  req.FullName,
		Role:      auth.Role(req.Role),
		StudentID: req.StudentID,
		Course:    req.Course,
		YearLevel: req.YearLevel,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	msg := "Registration successful. Your account is pending approval."
	if u.Status == auth.StatusActive {
		msg = "Registration successful."
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg, "user": u})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.issueTokens(c, u)
}

func (h *Handler) refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	claims, err := h.issuer.ParseRefresh(req.RefreshToken)
	if err != nil {
		respondError(c, apperr.Unauthorized("invalid refresh token"))
		return
	}
	u, err := h.users.Get(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			err = apperr.Unauthorized("account no longer exists")
		}
		respondError(c, err)
		return
	}
	h.issueTokens(c, u)
}

func (h *Handler) issueTokens(c *gin.Context, u users.User) {
	tokens, err := h.issuer.Issue(u.ID, u.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.AccessExp,
		User:         u,
	})
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), principal(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
