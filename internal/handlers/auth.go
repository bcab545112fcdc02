package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"profilehub/api/internal/apperr"
	"profilehub/api/internal/models"
	"profilehub/api/internal/service"
)

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=20"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=64"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=64"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type resetPasswordRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=64"`
}

type changePasswordRequest struct {
	Password string `json:"password" binding:"required,min=8,max=64"`
}

type accountResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toAccountResponse(account models.Account) accountResponse {
	return accountResponse{
		ID:         account.ID,
		Username:   account.Username,
		Email:      account.Email,
		Role:       string(account.Role),
		Status:     string(account.Status),
		IsVerified: account.IsVerified,
		CreatedAt:  account.CreatedAt,
		UpdatedAt:  account.UpdatedAt,
	}
}

func (h HandlerSet) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondKind(c, apperr.KindValidation, err.Error())
		return
	}

	account, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": toAccountResponse(account)})
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondKind(c, apperr.KindValidation, err.Error())
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         toAccountResponse(result.Account),
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		respondKind(c, apperr.KindTokenMissing, "unauthorized")
		return
	}

	if _, err := h.authService.Logout(c.Request.Context(), account.ID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) Refresh(c *gin.Context) {
	var req refreshRequest
	// Binding errors fall through: an empty token is the service's
	// TokenMissing case, not a transport validation failure.
	_ = c.ShouldBindJSON(&req)

	accessToken, err := h.authService.RefreshAccessToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": accessToken})
}

func (h HandlerSet) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondKind(c, apperr.KindValidation, err.Error())
		return
	}

	ok, err := h.authService.ResetPassword(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": ok})
}

func (h HandlerSet) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondKind(c, apperr.KindValidation, err.Error())
		return
	}

	ok, err := h.authService.ChangePassword(c.Request.Context(), c.Param("id"), req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": ok})
}

func (h HandlerSet) Me(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		respondKind(c, apperr.KindTokenMissing, "unauthorized")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toAccountResponse(account)})
}
