package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/triptrack-api/middleware"
	"github.com/LovationAdmin/triptrack-api/models"
	"github.com/LovationAdmin/triptrack-api/services"
	"github.com/LovationAdmin/triptrack-api/utils"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}

	resp, err := h.Auth.SignUp(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondServiceError(c, err, "Failed to create account")
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}

	resp, err := h.Auth.SignIn(c.Request.Context(), req.Email, req.Password, req.TOTPCode)
	if errors.Is(err, services.ErrTOTPRequired) || errors.Is(err, services.ErrInvalidTOTP) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":        err.Error(),
			"requires_2fa": true,
		})
		return
	}
	if err != nil {
		respondServiceError(c, err, "Failed to sign in")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.Auth.SignOut(c.Request.Context(), middleware.GetSessionID(c)); err != nil {
		respondServiceError(c, err, "Failed to sign out")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out", "redirect": utils.RedirectLogin})
}

// Session returns the profile behind the current session.
func (h *AuthHandler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.GetProfile(c)})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}

	resp, err := h.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err, "Failed to refresh session")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ============================================================================
// 2FA
// ============================================================================

func (h *AuthHandler) SetupTOTP(c *gin.Context) {
	resp, err := h.Auth.SetupTOTP(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		respondServiceError(c, err, "Failed to set up 2FA")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) VerifyTOTP(c *gin.Context) {
	var req models.VerifyTOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}

	if err := h.Auth.EnableTOTP(c.Request.Context(), middleware.GetAccountID(c), req.Code); err != nil {
		respondServiceError(c, err, "Failed to enable 2FA")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "2FA enabled"})
}

func (h *AuthHandler) DisableTOTP(c *gin.Context) {
	var req models.VerifyTOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}

	if err := h.Auth.DisableTOTP(c.Request.Context(), middleware.GetAccountID(c), req.Code); err != nil {
		respondServiceError(c, err, "Failed to disable 2FA")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "2FA disabled"})
}
